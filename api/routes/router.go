package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lunchtogether/lunchbox-backend/api/controllers"
	"github.com/lunchtogether/lunchbox-backend/api/middleware"
	"github.com/lunchtogether/lunchbox-backend/internal/auth"
	"github.com/lunchtogether/lunchbox-backend/internal/items"
	"github.com/lunchtogether/lunchbox-backend/internal/notifications"
	"github.com/lunchtogether/lunchbox-backend/internal/notifications/channels"
	"github.com/lunchtogether/lunchbox-backend/internal/orders"
	"github.com/lunchtogether/lunchbox-backend/internal/stores"
	"github.com/lunchtogether/lunchbox-backend/pkg/config"
	"github.com/lunchtogether/lunchbox-backend/pkg/db"
	"github.com/lunchtogether/lunchbox-backend/pkg/logger"
	"github.com/lunchtogether/lunchbox-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface depends on. LineNotify
// may be nil when the channel is not configured.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         redis.Pinger
	Auth          auth.Service
	Stores        stores.Service
	Items         items.Service
	Orders        orders.Service
	Notifications notifications.Service
	LineNotify    *channels.LineNotifySender
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DB, p.Redis))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(p.Auth, p.Logger))
		r.Post("/login", controllers.AuthLogin(p.Auth, p.Logger))
	})

	// Share-token surface: no authentication, the token is the capability.
	r.Route("/api/v1/share/{token}", func(r chi.Router) {
		r.Get("/", controllers.PublicOrderFetch(p.Orders, p.Logger))
		r.Put("/submission", controllers.PublicOrderSubmit(p.Orders, p.Logger))
		r.Delete("/submission", controllers.PublicOrderCancelSubmission(p.Orders, p.Logger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))

		r.Get("/auth/me", controllers.AuthMe(p.Auth, p.Logger))

		r.Route("/stores", func(r chi.Router) {
			r.Post("/", controllers.StoreCreate(p.Stores, p.Logger))
			r.Get("/", controllers.StoreList(p.Stores, p.Logger))
			r.Get("/{storeId}", controllers.StoreDetail(p.Stores, p.Logger))
			r.Patch("/{storeId}", controllers.StoreUpdate(p.Stores, p.Logger))
			r.Post("/{storeId}/active", controllers.StoreSetActive(p.Stores, p.Logger))
			r.Delete("/{storeId}", controllers.StoreDelete(p.Stores, p.Logger))
			r.Post("/{storeId}/items", controllers.ItemCreate(p.Items, p.Logger))
			r.Get("/{storeId}/items", controllers.ItemList(p.Items, p.Logger))
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/{itemId}", controllers.ItemDetail(p.Items, p.Logger))
			r.Patch("/{itemId}", controllers.ItemUpdate(p.Items, p.Logger))
			r.Post("/{itemId}/availability", controllers.ItemSetAvailability(p.Items, p.Logger))
			r.Delete("/{itemId}", controllers.ItemDelete(p.Items, p.Logger))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(p.Orders, p.Logger))
			r.Get("/", controllers.OrderList(p.Orders, p.Logger))
			r.Get("/history", controllers.OrderHistory(p.Orders, p.Logger))
			r.Get("/{orderId}", controllers.OrderDetail(p.Orders, p.Logger))
			r.Patch("/{orderId}", controllers.OrderUpdate(p.Orders, p.Logger))
			r.Post("/{orderId}/reshare", controllers.OrderReshare(p.Orders, p.Logger))
			r.Delete("/{orderId}", controllers.OrderDelete(p.Orders, p.Logger))
			r.Get("/{orderId}/export.csv", controllers.OrderExportCSV(p.Orders, p.Logger))
			r.Get("/{orderId}/export.pdf", controllers.OrderExportPDF(p.Orders, p.Logger))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, p.Logger))
			r.Get("/unread-count", controllers.NotificationUnreadCount(p.Notifications, p.Logger))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, p.Logger))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, p.Logger))
			r.Get("/preferences", controllers.NotificationPreferences(p.Notifications, p.Logger))
			r.Patch("/preferences", controllers.UpdateNotificationPreferences(p.Notifications, p.Logger))
			r.Post("/webpush", controllers.RegisterWebPush(p.Notifications, p.Logger))
			r.Delete("/webpush", controllers.UnregisterWebPush(p.Notifications, p.Logger))
			r.Get("/telegram/bot-link", controllers.TelegramBotLink(p.Config.Telegram, p.Logger))
			r.Post("/telegram", controllers.LinkTelegram(p.Notifications, p.Logger))
			r.Delete("/telegram", controllers.UnlinkTelegram(p.Notifications, p.Logger))
			r.Get("/line-notify/authorize", controllers.LineNotifyAuthorize(lineLinker(p.LineNotify), p.Logger))
			r.Post("/line-notify/exchange", controllers.LineNotifyExchange(lineLinker(p.LineNotify), p.Notifications, p.Logger))
			r.Delete("/line-notify", controllers.UnlinkLineNotify(p.Notifications, p.Logger))
		})
	})

	return r
}

// lineLinker keeps a typed nil from masquerading as a usable dependency.
func lineLinker(sender *channels.LineNotifySender) controllers.LineNotifyLinker {
	if sender == nil {
		return nil
	}
	return sender
}
