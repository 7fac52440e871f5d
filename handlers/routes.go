package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/ontimenews/backend/apperr"
	"github.com/kevinaaaquil/ontimenews/backend/middleware"
	"github.com/rs/zerolog"
)

// Deps is everything the router needs. Payments, Images, Notifier and
// Notifications may be nil; their routes then answer 503 or skip the side
// effect.
type Deps struct {
	Users         UserStore
	Articles      ArticleStore
	Publishers    PublisherStore
	Notifications NotificationLog
	Tokens        Tokens
	Payments      PaymentCreator
	Images        ImageStorage
	Notifier      DeclineNotifier

	MaxUploadBytes int64
	PublicURL      string
	AllowedOrigins []string
	Log            zerolog.Logger
}

// Route binds a method and pattern to a handler and the access it requires.
type Route struct {
	Method  string
	Pattern string
	Access  middleware.Access
	Handler http.HandlerFunc
}

// Routes is the full route table. Ownership checks on /myArticles and
// /article/{id} happen inside the handlers, after authentication.
func Routes(d Deps) []Route {
	tokens := &TokenHandler{Tokens: d.Tokens, Log: d.Log}
	users := &UsersHandler{Users: d.Users, Log: d.Log}
	articles := &ArticlesHandler{
		Articles:      d.Articles,
		Users:         d.Users,
		Notifier:      d.Notifier,
		Notifications: d.Notifications,
		Images:        d.Images,
		PublicURL:     d.PublicURL,
		Log:           d.Log,
	}
	publishers := &PublishersHandler{Publishers: d.Publishers, Log: d.Log}
	payments := &PaymentsHandler{Payments: d.Payments, Log: d.Log}
	uploads := &UploadHandler{
		Images:    d.Images,
		MaxBytes:  d.MaxUploadBytes,
		PublicURL: d.PublicURL,
		Log:       d.Log,
	}

	const (
		public = middleware.Public
		authed = middleware.Authenticated
		admin  = middleware.Admin
	)
	return []Route{
		{http.MethodGet, "/", public, Root},
		{http.MethodGet, "/health", public, Health},
		{http.MethodPost, "/jwt", public, tokens.IssueToken},

		{http.MethodGet, "/users", admin, users.ListUsers},
		{http.MethodGet, "/users/admin/{email}", authed, users.AdminStatus},
		{http.MethodPost, "/users", public, users.RegisterUser},
		{http.MethodPatch, "/users/admin/{id}", admin, users.PromoteUser},

		{http.MethodGet, "/articles", authed, articles.ListArticles},
		{http.MethodPost, "/articles", public, articles.CreateArticle},
		{http.MethodGet, "/articles/{id}", public, articles.GetArticle},
		{http.MethodGet, "/searchArticles", public, articles.SearchArticles},
		{http.MethodGet, "/articlesCount", public, articles.TopViewed},
		{http.MethodGet, "/myArticles/{email}", authed, articles.MyArticles},
		{http.MethodGet, "/article/{id}", public, articles.GetArticle},
		{http.MethodPatch, "/article/{id}", authed, articles.UpdateArticle},
		{http.MethodDelete, "/article/{id}", authed, articles.DeleteArticle},
		{http.MethodPatch, "/admin-articles/{id}", admin, articles.ApproveArticle},
		{http.MethodPatch, "/isPremium-articles/{id}", admin, articles.PromotePremium},
		{http.MethodPatch, "/viewCount/{id}", public, articles.IncrementViewCount},
		{http.MethodPost, "/decline/{id}", admin, articles.DeclineArticle},
		{http.MethodGet, "/decline/{id}/notifications", admin, articles.DeclineNotifications},

		{http.MethodPost, "/publisher", admin, publishers.CreatePublisher},
		{http.MethodGet, "/publisher", public, publishers.ListPublishers},

		{http.MethodPost, "/create-payment-intent", public, payments.CreatePaymentIntent},
		{http.MethodPost, "/uploads/image", authed, uploads.UploadImage},
		{http.MethodGet, imagesPath + "*", public, uploads.ServeImage},
	}
}

// NewRouter builds the HTTP handler with the standard middleware stack and
// every route behind its guard.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperr.Write(w, apperr.NotFound("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apperr.Write(w, apperr.New(apperr.KindMethod, "method not allowed"))
	})

	for _, rt := range Routes(d) {
		r.With(middleware.Guard(rt.Access, d.Tokens, d.Users, d.Log)).Method(rt.Method, rt.Pattern, rt.Handler)
	}
	return r
}

func Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OnTime News server is running"))
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
