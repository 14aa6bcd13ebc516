package dto

import "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

type PlatformStatsResponse struct {
	UserCount int `json:"user_count"`
}

func UserFromModel(u model.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
	}
}

func UsersFromModels(items []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(items))
	for _, u := range items {
		out = append(out, UserFromModel(u))
	}
	return out
}
