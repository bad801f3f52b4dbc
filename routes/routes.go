package routes

import (
	"fmt"
	"net/http"
	"time"

	"ticketbari/admin"
	"ticketbari/auth"
	"ticketbari/booking"
	"ticketbari/identity"
	"ticketbari/metrics"
	"ticketbari/middleware"
	"ticketbari/models"
	"ticketbari/pay"
	"ticketbari/ratelim"
	"ticketbari/tickets"
	"ticketbari/users"

	"github.com/julienschmidt/httprouter"
)

// Deps carries every service the routes are wired to.
type Deps struct {
	Verifier    identity.Verifier
	Directory   *users.Directory
	Catalog     *tickets.Catalog
	Ledger      *booking.Ledger
	Payments    *pay.PaymentService
	Idempotency pay.IdempotencyStore
	RateLimiter *ratelim.RateLimiter
}

func New(d Deps) *httprouter.Router {
	router := httprouter.New()
	RoutesWrapper(router, d)
	return router
}

func RoutesWrapper(router *httprouter.Router, d Deps) {
	AddStaticRoutes(router)
	AddAuthRoutes(router, d)
	AddAdminRoutes(router, d)
	AddTicketRoutes(router, d)
	AddBookingRoutes(router, d)
	AddPayRoutes(router, d)
}

func AddStaticRoutes(router *httprouter.Router) {
	router.GET("/", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		fmt.Fprint(w, "TicketBari is running..........")
	})
	router.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		fmt.Fprint(w, "200")
	})
	router.Handler(http.MethodGet, "/metrics", metrics.Handler())
}

func AddAuthRoutes(router *httprouter.Router, d Deps) {
	h := auth.NewHandlers(d.Directory)
	router.POST("/user", middleware.Chain(d.RateLimiter.Limit, middleware.Authenticate(d.Verifier))(h.SaveUser))
	router.GET("/user/role", middleware.Authenticate(d.Verifier)(h.GetRole))
}

func AddAdminRoutes(router *httprouter.Router, d Deps) {
	h := admin.NewHandlers(d.Directory)
	adminOnly := middleware.Chain(
		middleware.Authenticate(d.Verifier),
		middleware.RequireRole(d.Directory, models.RoleAdmin),
	)
	router.GET("/users", adminOnly(h.GetUsers))
	router.PATCH("/users/make-admin/:id", adminOnly(h.MakeAdmin))
	router.PATCH("/users/make-vendor/:id", adminOnly(h.MakeVendor))
	router.PATCH("/users/mark-fraud/:id", adminOnly(h.MarkFraud))
}

func AddTicketRoutes(router *httprouter.Router, d Deps) {
	h := tickets.NewHandlers(d.Catalog)
	adminOnly := middleware.Chain(
		middleware.Authenticate(d.Verifier),
		middleware.RequireRole(d.Directory, models.RoleAdmin),
	)

	router.POST("/tickets", middleware.Chain(
		d.RateLimiter.Limit,
		middleware.Authenticate(d.Verifier),
		middleware.RequireRole(d.Directory, models.RoleVendor),
	)(h.CreateTicket))

	router.GET("/tickets", h.GetTickets)
	router.GET("/tickets/approved", h.GetApprovedTickets)
	router.GET("/tickets/approved/:id", h.GetTicket)
	router.GET("/tickets/advertised", h.GetAdvertisedTickets)
	router.GET("/tickets/vendor", h.GetVendorTickets)

	// httprouter cannot mix a static segment with a wildcard at the same
	// position, so /tickets/status/approved/:id shares the :key wildcard.
	router.PATCH("/tickets/status/:key", adminOnly(h.UpdateStatus))
	router.PATCH("/tickets/status/:key/:id", adminOnly(h.UpdateStatus))
	router.PATCH("/tickets/advertise/:id", adminOnly(h.UpdateAdvertise))
	router.DELETE("/tickets/:id", adminOnly(h.DeleteTicket))
}

func AddBookingRoutes(router *httprouter.Router, d Deps) {
	h := booking.NewHandlers(d.Ledger)
	deciders := middleware.Chain(
		middleware.Authenticate(d.Verifier),
		middleware.RequireRole(d.Directory, models.RoleVendor, models.RoleAdmin),
	)

	router.POST("/booking-tickets", middleware.Chain(
		d.RateLimiter.Limit,
		middleware.Authenticate(d.Verifier),
		middleware.RequireRole(d.Directory, models.RoleCustomer),
	)(h.CreateBooking))
	router.GET("/booking-tickets", h.GetBookings)
	router.PATCH("/booking-tickets/accept/:id", deciders(h.AcceptBooking))
	router.PATCH("/booking-tickets/reject/:id", deciders(h.RejectBooking))
}

const idempotencyTTL = 24 * time.Hour

func AddPayRoutes(router *httprouter.Router, d Deps) {
	p := d.Payments

	checkout := []middleware.Middleware{d.RateLimiter.Limit, middleware.Authenticate(d.Verifier)}
	if d.Idempotency != nil {
		checkout = append(checkout, pay.Idempotent(d.Idempotency, idempotencyTTL))
	}
	router.POST("/create-checkout-session", middleware.Chain(checkout...)(p.CreateCheckoutSession))

	router.POST("/dashboard/payment/success", d.RateLimiter.Limit(p.PaymentSuccess))
	router.GET("/dashboard/payment/success", middleware.Chain(
		middleware.Authenticate(d.Verifier),
		middleware.RequireRole(d.Directory, models.RoleAdmin),
	)(p.GetPayments))
	router.GET("/dashboard/payment/mine", middleware.Authenticate(d.Verifier)(p.GetMyPayments))
	router.GET("/dashboard/payment/receipt/:sessionId", middleware.Chain(
		middleware.Authenticate(d.Verifier),
		middleware.WithRole(d.Directory),
	)(p.DownloadReceipt))
}
