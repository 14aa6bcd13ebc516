package apiapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	analyticsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/analytics"
	authsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
	coursesvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/courses"
	enrollsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/enrollments"
	lessonsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/lessons"
	paymentsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/payments"
	ratesvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/rate"
	reviewsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/reviews"
	userssvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/users"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService       *authsvc.Service
	Codec             *authsvc.Codec
	CourseService     *coursesvc.Service
	LessonService     *lessonsvc.Service
	EnrollmentService *enrollsvc.Service
	ReviewService     *reviewsvc.Service
	PaymentService    *paymentsvc.Service
	AnalyticsService  *analyticsvc.Service
	UserService       *userssvc.Service
	RateLimiter       *ratesvc.Limiter
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.RateLimiter)
	courseHandler := handlers.NewCourseHandler(deps.CourseService)
	lessonHandler := handlers.NewLessonHandler(deps.LessonService)
	enrollmentHandler := handlers.NewEnrollmentHandler(deps.EnrollmentService)
	reviewHandler := handlers.NewReviewHandler(deps.ReviewService)
	paymentHandler := handlers.NewPaymentHandler(deps.PaymentService)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.AnalyticsService)
	adminHandler := handlers.NewAdminHandler(deps.UserService)

	authMW := AuthMiddleware(deps.Codec)
	optionalAuthMW := OptionalAuthMiddleware(deps.Codec)
	creatorRoleMW := RequireRole("INSTRUCTOR", "ADMIN")
	adminRoleMW := RequireRole("ADMIN")

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
		r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
		r.With(authMW).Post("/password", authHandler.ChangePassword)
		r.With(authMW).Get("/me", authHandler.Me)
	})

	r.Route("/courses", func(r chi.Router) {
		r.Get("/", courseHandler.List)
		r.With(authMW, creatorRoleMW).Get("/mine", courseHandler.ListMine)
		r.With(authMW, creatorRoleMW).Post("/", courseHandler.Create)

		r.Route("/{courseID}", func(r chi.Router) {
			r.With(optionalAuthMW).Get("/", courseHandler.Get)
			r.With(authMW, creatorRoleMW).Put("/", courseHandler.Update)
			r.With(authMW, creatorRoleMW).Delete("/", courseHandler.Delete)
			r.With(authMW, creatorRoleMW).Put("/publish", courseHandler.Publish)
			r.With(authMW, creatorRoleMW).Post("/thumbnail", courseHandler.UploadThumbnail)
			r.With(optionalAuthMW).Get("/thumbnail-url", courseHandler.ThumbnailURL)

			r.Get("/lessons", lessonHandler.ListByCourse)
			r.With(authMW, creatorRoleMW).Post("/lessons", lessonHandler.Create)

			r.With(authMW).Post("/enroll", enrollmentHandler.EnrollFree)
			r.With(authMW).Post("/checkout", paymentHandler.Checkout)

			r.Get("/reviews", reviewHandler.ListByCourse)
			r.With(authMW).Post("/reviews", reviewHandler.Create)
		})
	})

	r.Route("/lessons/{lessonID}", func(r chi.Router) {
		r.With(authMW, creatorRoleMW).Put("/", lessonHandler.Update)
		r.With(authMW, creatorRoleMW).Delete("/", lessonHandler.Delete)
		r.With(authMW, creatorRoleMW).Post("/video", lessonHandler.UploadVideo)
		r.With(authMW).Get("/video-url", lessonHandler.VideoURL)
		r.With(authMW).Post("/complete", enrollmentHandler.CompleteLesson)
	})

	r.Route("/reviews/{reviewID}", func(r chi.Router) {
		r.With(authMW).Put("/", reviewHandler.Update)
		r.With(authMW).Delete("/", reviewHandler.Delete)
	})

	r.Route("/me", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/enrollments", enrollmentHandler.ListMine)
		r.Get("/payments", paymentHandler.ListMine)
	})

	r.With(authMW).Get("/instructors/{instructorID}/stats", analyticsHandler.InstructorStats)

	r.Post("/webhooks/payments", paymentHandler.Webhook)

	r.Route("/admin", func(r chi.Router) {
		r.Use(authMW, adminRoleMW)
		r.Get("/users", adminHandler.ListUsers)
		r.Get("/users/{userID}", adminHandler.GetUser)
		r.Put("/users/{userID}/role", adminHandler.ChangeRole)
		r.Delete("/users/{userID}", adminHandler.DeleteUser)
		r.Get("/stats", adminHandler.PlatformStats)
	})
}
