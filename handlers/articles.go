package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/ontimenews/backend/apperr"
	"github.com/kevinaaaquil/ontimenews/backend/middleware"
	"github.com/kevinaaaquil/ontimenews/backend/models"
	"github.com/rs/zerolog"
)

type ArticlesHandler struct {
	Articles ArticleStore
	Users    UserStore
	Log      zerolog.Logger

	// Notifier and Notifications are optional. A decline stands even when
	// the email cannot be sent or logged.
	Notifier      DeclineNotifier
	Notifications NotificationLog

	// Images, when set, has uploaded article images removed along with
	// their article. PublicURL must match the one uploads were linked with.
	Images    ImageStorage
	PublicURL string
}

// CreateArticleRequest is what a writer submits. Lifecycle fields are set
// by the server.
type CreateArticleRequest struct {
	Title       string   `json:"title" validate:"required"`
	Publisher   string   `json:"publisher"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Email       string   `json:"email" validate:"required,email"`
	Photo       string   `json:"photo"`
	DisplayName string   `json:"displayName"`
}

type DeclineRequest struct {
	Decline string `json:"decline"`
}

type InsertedResponse struct {
	InsertedID string `json:"insertedId"`
}

type DeletedResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

type ViewCountResponse struct {
	ViewCount int64 `json:"viewCount"`
}

func articleList(articles []models.Article) []models.Article {
	if articles == nil {
		return []models.Article{}
	}
	return articles
}

// ListArticles returns articles narrowed by the publisher, tag, status and
// premium query parameters.
func (h *ArticlesHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.ArticleFilter{
		Publisher:   q.Get("publisher"),
		Tag:         q.Get("tag"),
		PremiumOnly: q.Get("premium") == "true",
	}
	if s := q.Get("status"); s != "" {
		status, err := models.ParseStatus(s)
		if err != nil {
			fail(h.Log, w, r, apperr.Validation(err.Error()))
			return
		}
		f.Status = status
	}
	articles, err := h.Articles.ListArticles(r.Context(), f)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to list articles", err))
		return
	}
	writeJSON(w, http.StatusOK, articleList(articles))
}

// CreateArticle stores a submission as pending.
func (h *ArticlesHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req CreateArticleRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(h.Log, w, r, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(req); err != nil {
		fail(h.Log, w, r, err)
		return
	}

	article := &models.Article{
		Title:       req.Title,
		Publisher:   req.Publisher,
		Tags:        req.Tags,
		Description: req.Description,
		Image:       req.Image,
		Email:       req.Email,
		Photo:       req.Photo,
		DisplayName: req.DisplayName,
	}
	id, err := h.Articles.InsertArticle(r.Context(), article)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to create article", err))
		return
	}
	h.Log.Info().Str("article_id", id.Hex()).Str("author", article.Email).Msg("Article submitted")
	writeJSON(w, http.StatusCreated, InsertedResponse{InsertedID: id.Hex()})
}

func (h *ArticlesHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		fail(h.Log, w, r, err)
		return
	}
	article, err := h.Articles.ArticleByID(r.Context(), id)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to load article", err))
		return
	}
	if article == nil {
		fail(h.Log, w, r, apperr.NotFound("article not found"))
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// SearchArticles matches the search term against titles, ignoring case.
func (h *ArticlesHandler) SearchArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.Articles.SearchArticles(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to search articles", err))
		return
	}
	writeJSON(w, http.StatusOK, articleList(articles))
}

// TopViewed returns the most viewed articles, highest first.
func (h *ArticlesHandler) TopViewed(w http.ResponseWriter, r *http.Request) {
	articles, err := h.Articles.TopViewedArticles(r.Context(), models.TopViewedLimit)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to load top articles", err))
		return
	}
	writeJSON(w, http.StatusOK, articleList(articles))
}

// MyArticles lists an author's articles. Only the author or an admin may ask.
func (h *ArticlesHandler) MyArticles(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if err := h.authorizeFor(r.Context(), email); err != nil {
		fail(h.Log, w, r, err)
		return
	}
	articles, err := h.Articles.ArticlesByAuthor(r.Context(), email)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to load articles", err))
		return
	}
	writeJSON(w, http.StatusOK, articleList(articles))
}

// UpdateArticle applies a partial update. Fields absent from the body keep
// their stored values.
func (h *ArticlesHandler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		fail(h.Log, w, r, err)
		return
	}
	var upd models.ArticleUpdate
	if err := decodeJSON(r, &upd); err != nil {
		fail(h.Log, w, r, err)
		return
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			fail(h.Log, w, r, apperr.Validation("title is required"))
			return
		}
		upd.Title = &title
	}
	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		upd.Email = &email
	}
	if err := validateStruct(upd); err != nil {
		fail(h.Log, w, r, err)
		return
	}
	if upd.Empty() {
		fail(h.Log, w, r, apperr.Validation("no fields to update"))
		return
	}

	article, err := h.Articles.ArticleByID(r.Context(), id)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to load article", err))
		return
	}
	if article == nil {
		fail(h.Log, w, r, apperr.NotFound("article not found"))
		return
	}
	if err := h.authorizeFor(r.Context(), article.Email); err != nil {
		fail(h.Log, w, r, err)
		return
	}
	if upd.Email != nil && !article.AuthoredBy(*upd.Email) {
		if err := h.requireAdmin(r.Context(), "only admins can reassign an article"); err != nil {
			fail(h.Log, w, r, err)
			return
		}
	}

	found, err := h.Articles.UpdateArticle(r.Context(), id, upd)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to update article", err))
		return
	}
	if !found {
		fail(h.Log, w, r, apperr.NotFound("article not found"))
		return
	}
	updated, err := h.Articles.ArticleByID(r.Context(), id)
	if err != nil || updated == nil {
		fail(h.Log, w, r, apperr.Internal("failed to reload article", err))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteArticle removes an article. Deleting an unknown id is not an error
// and reports a zero count.
func (h *ArticlesHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		fail(h.Log, w, r, err)
		return
	}
	article, err := h.Articles.ArticleByID(r.Context(), id)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to load article", err))
		return
	}
	if article == nil {
		writeJSON(w, http.StatusOK, DeletedResponse{})
		return
	}
	if err := h.authorizeFor(r.Context(), article.Email); err != nil {
		fail(h.Log, w, r, err)
		return
	}
	n, err := h.Articles.DeleteArticle(r.Context(), id)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to delete article", err))
		return
	}
	if n > 0 {
		h.removeImage(r.Context(), article)
	}
	writeJSON(w, http.StatusOK, DeletedResponse{DeletedCount: n})
}

// ApproveArticle publishes a pending or declined article. Admin only.
func (h *ArticlesHandler) ApproveArticle(w http.ResponseWriter, r *http.Request) {
	if article, ok := h.transition(w, r, models.Approve()); ok {
		writeJSON(w, http.StatusOK, article)
	}
}

// PromotePremium marks an approved article premium. Admin only.
func (h *ArticlesHandler) PromotePremium(w http.ResponseWriter, r *http.Request) {
	if article, ok := h.transition(w, r, models.PromotePremium()); ok {
		writeJSON(w, http.StatusOK, article)
	}
}

// DeclineArticle rejects a pending article with a reason and notifies the
// author. Admin only.
func (h *ArticlesHandler) DeclineArticle(w http.ResponseWriter, r *http.Request) {
	var req DeclineRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(h.Log, w, r, err)
		return
	}
	article, ok := h.transition(w, r, models.Decline(req.Decline))
	if !ok {
		return
	}
	h.notifyDeclined(r, article)
	writeJSON(w, http.StatusOK, article)
}

// notifyDeclined emails the author and logs the attempt. Failures are
// logged and never undo the decline.
func (h *ArticlesHandler) notifyDeclined(r *http.Request, article *models.Article) {
	if h.Notifier == nil {
		return
	}
	entry := &models.NotificationLog{
		ArticleID: article.ID,
		Title:     article.Title,
		ToEmail:   article.Email,
		Reason:    article.Decline,
		SentBy:    middleware.EmailFromContext(r.Context()),
		Delivered: true,
	}
	if err := h.Notifier.NotifyDeclined(r.Context(), article); err != nil {
		h.Log.Warn().Err(err).Str("article_id", article.ID.Hex()).Msg("Decline notification failed")
		entry.Delivered = false
		entry.Error = err.Error()
	}
	if h.Notifications == nil {
		return
	}
	if err := h.Notifications.InsertNotificationLog(r.Context(), entry); err != nil {
		h.Log.Warn().Err(err).Str("article_id", article.ID.Hex()).Msg("Failed to record notification")
	}
}

// DeclineNotifications lists the decline emails attempted for an article.
// Admin only.
func (h *ArticlesHandler) DeclineNotifications(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		fail(h.Log, w, r, err)
		return
	}
	if h.Notifications == nil {
		writeJSON(w, http.StatusOK, []models.NotificationLog{})
		return
	}
	logs, err := h.Notifications.NotificationLogsForArticle(r.Context(), id)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to load notifications", err))
		return
	}
	if logs == nil {
		logs = []models.NotificationLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// IncrementViewCount adds one view atomically and returns the new count.
func (h *ArticlesHandler) IncrementViewCount(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		fail(h.Log, w, r, err)
		return
	}
	article, err := h.Articles.IncrementViewCount(r.Context(), id)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to count view", err))
		return
	}
	if article == nil {
		fail(h.Log, w, r, apperr.NotFound("article not found"))
		return
	}
	writeJSON(w, http.StatusOK, ViewCountResponse{ViewCount: article.ViewCount})
}

// transition applies t to the article named in the path and returns the
// stored result. On failure the error has already been written.
func (h *ArticlesHandler) transition(w http.ResponseWriter, r *http.Request, t models.Transition) (*models.Article, bool) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		fail(h.Log, w, r, err)
		return nil, false
	}
	if err := t.Validate(); err != nil {
		fail(h.Log, w, r, apperr.Validation(err.Error()))
		return nil, false
	}
	applied, err := h.Articles.TransitionArticle(r.Context(), id, t)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to update article status", err))
		return nil, false
	}
	article, err := h.Articles.ArticleByID(r.Context(), id)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to load article", err))
		return nil, false
	}
	if article == nil {
		fail(h.Log, w, r, apperr.NotFound("article not found"))
		return nil, false
	}
	if !applied {
		msg := fmt.Sprintf("cannot %s an article that is %s", t.Action, article.CurrentStatus())
		fail(h.Log, w, r, apperr.Conflict(msg))
		return nil, false
	}
	h.Log.Info().
		Str("article_id", id.Hex()).
		Str("action", string(t.Action)).
		Str("by", middleware.EmailFromContext(r.Context())).
		Msg("Article status changed")
	return article, true
}

// removeImage deletes the article's uploaded image, if it has one. Images
// linked from elsewhere are left alone.
func (h *ArticlesHandler) removeImage(ctx context.Context, article *models.Article) {
	if h.Images == nil {
		return
	}
	key, ok := imageKeyFromURL(h.PublicURL, article.Image)
	if !ok {
		return
	}
	if err := h.Images.Delete(ctx, key); err != nil {
		h.Log.Warn().Err(err).Str("key", key).Str("article_id", article.ID.Hex()).Msg("Failed to remove article image")
	}
}

// authorizeFor allows the caller when they are the owner email or an admin.
func (h *ArticlesHandler) authorizeFor(ctx context.Context, owner string) error {
	caller := middleware.EmailFromContext(ctx)
	if caller == "" {
		return apperr.Unauthorized("authentication required")
	}
	if strings.EqualFold(caller, owner) {
		return nil
	}
	return h.requireAdmin(ctx, "forbidden access")
}

// requireAdmin looks the caller up and answers Forbidden with denied unless
// their stored role is admin.
func (h *ArticlesHandler) requireAdmin(ctx context.Context, denied string) error {
	caller := middleware.EmailFromContext(ctx)
	if caller == "" {
		return apperr.Unauthorized("authentication required")
	}
	user, err := h.Users.UserByEmail(ctx, caller)
	if err != nil {
		return apperr.Internal("failed to load user", err)
	}
	if !user.IsAdmin() {
		return apperr.Forbidden(denied)
	}
	return nil
}
