package http

import (
	"net/http"

	"beauty-booking-api/internal/delivery/http/handler"
	"beauty-booking-api/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router          *mux.Router
	authHandler     *handler.AuthHandler
	providerHandler *handler.ProviderHandler
	serviceHandler  *handler.ServiceHandler
	scheduleHandler *handler.ScheduleHandler
	bookingHandler  *handler.BookingHandler
	paymentHandler  *handler.PaymentHandler
	auditLogHandler *handler.AuditLogHandler
	wsHandler       *handler.WSHandler
	authMiddleware  *middleware.AuthMiddleware
	corsMiddleware  *middleware.CORSMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	providerHandler *handler.ProviderHandler,
	serviceHandler *handler.ServiceHandler,
	scheduleHandler *handler.ScheduleHandler,
	bookingHandler *handler.BookingHandler,
	paymentHandler *handler.PaymentHandler,
	auditLogHandler *handler.AuditLogHandler,
	wsHandler *handler.WSHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:          mux.NewRouter(),
		authHandler:     authHandler,
		providerHandler: providerHandler,
		serviceHandler:  serviceHandler,
		scheduleHandler: scheduleHandler,
		bookingHandler:  bookingHandler,
		paymentHandler:  paymentHandler,
		auditLogHandler: auditLogHandler,
		wsHandler:       wsHandler,
		authMiddleware:  authMiddleware,
		corsMiddleware:  corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", r.authHandler.RegisterClient).Methods(http.MethodPost)
	auth.HandleFunc("/register/provider", r.authHandler.RegisterProvider).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Public catalog and availability
	api.HandleFunc("/providers/{providerId}", r.providerHandler.GetProvider).Methods(http.MethodGet)
	api.HandleFunc("/providers/{providerId}/services", r.serviceHandler.ListProviderServices).Methods(http.MethodGet)
	api.HandleFunc("/providers/{providerId}/availability", r.scheduleHandler.GetAvailability).Methods(http.MethodGet)
	api.HandleFunc("/providers/{providerId}/slots", r.scheduleHandler.GetAvailableSlots).Methods(http.MethodGet)
	api.HandleFunc("/services/{id}", r.serviceHandler.GetService).Methods(http.MethodGet)

	// Payment gateway webhook (authenticated by shared secret, not JWT)
	api.HandleFunc("/payments/webhook", r.paymentHandler.HandleWebhook).Methods(http.MethodPost)

	// Provider console (protected - provider only)
	provider := api.PathPrefix("/provider").Subrouter()
	provider.Use(r.authMiddleware.Authenticate)
	provider.Use(middleware.RequireProvider)
	provider.HandleFunc("/profile", r.providerHandler.UpdateProfile).Methods(http.MethodPut)
	provider.HandleFunc("/policy", r.providerHandler.UpdatePolicy).Methods(http.MethodPut)
	provider.HandleFunc("/services", r.serviceHandler.CreateService).Methods(http.MethodPost)
	provider.HandleFunc("/services", r.serviceHandler.ListMyServices).Methods(http.MethodGet)
	provider.HandleFunc("/services/{id}", r.serviceHandler.UpdateService).Methods(http.MethodPut)
	provider.HandleFunc("/services/{id}", r.serviceHandler.DeactivateService).Methods(http.MethodDelete)
	provider.HandleFunc("/availability", r.scheduleHandler.SetAvailability).Methods(http.MethodPut)
	provider.HandleFunc("/time-off", r.scheduleHandler.CreateTimeOff).Methods(http.MethodPost)
	provider.HandleFunc("/time-off", r.scheduleHandler.ListTimeOff).Methods(http.MethodGet)
	provider.HandleFunc("/time-off/{id}", r.scheduleHandler.DeleteTimeOff).Methods(http.MethodDelete)
	provider.HandleFunc("/bookings", r.bookingHandler.GetProviderBookings).Methods(http.MethodGet)
	provider.HandleFunc("/bookings/{id}/confirm", r.bookingHandler.ConfirmBooking).Methods(http.MethodPost)
	provider.HandleFunc("/bookings/{id}/complete", r.bookingHandler.CompleteBooking).Methods(http.MethodPost)
	provider.HandleFunc("/bookings/{id}/no-show", r.bookingHandler.MarkNoShow).Methods(http.MethodPost)

	// Client booking routes (protected - client only)
	client := api.PathPrefix("/bookings").Subrouter()
	client.Use(r.authMiddleware.Authenticate)
	client.HandleFunc("", r.bookingHandler.CreateBooking).Methods(http.MethodPost)
	client.HandleFunc("", r.bookingHandler.GetMyBookings).Methods(http.MethodGet)
	client.HandleFunc("/{id}", r.bookingHandler.GetBooking).Methods(http.MethodGet)
	client.HandleFunc("/{id}/cancel", r.bookingHandler.CancelBooking).Methods(http.MethodPost)
	client.HandleFunc("/{id}/payment", r.paymentHandler.InitializePayment).Methods(http.MethodPost)
	client.HandleFunc("/{id}/provider-no-show", r.bookingHandler.ReportProviderNoShow).Methods(http.MethodPost)
	client.HandleFunc("/{id}/reschedule", r.bookingHandler.ProposeReschedule).Methods(http.MethodPost)

	// Reschedule responses (either side)
	reschedule := api.PathPrefix("/reschedules").Subrouter()
	reschedule.Use(r.authMiddleware.Authenticate)
	reschedule.HandleFunc("/{id}/respond", r.bookingHandler.RespondReschedule).Methods(http.MethodPost)

	// Realtime events
	ws := api.PathPrefix("/ws").Subrouter()
	ws.Use(r.authMiddleware.Authenticate)
	ws.HandleFunc("", r.wsHandler.Connect).Methods(http.MethodGet)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
