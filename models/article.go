package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ArticleStatus string

const (
	StatusPending  ArticleStatus = "pending"
	StatusApproved ArticleStatus = "approve"
	StatusDeclined ArticleStatus = "declined"
)

// PremiumMarker is the stored value of isPremium for premium articles.
const PremiumMarker = "Premium"

// TopViewedLimit is how many articles /articlesCount returns.
const TopViewedLimit = 6

type Article struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title" validate:"required"`
	Publisher   string             `bson:"publisher,omitempty" json:"publisher,omitempty"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	Email       string             `bson:"email" json:"email" validate:"required,email"`
	Photo       string             `bson:"photo,omitempty" json:"photo,omitempty"`
	DisplayName string             `bson:"displayName,omitempty" json:"displayName,omitempty"`
	ViewCount   int64              `bson:"viewCount" json:"viewCount" validate:"min=0"`
	Status      ArticleStatus      `bson:"status,omitempty" json:"status"`
	IsPremium   string             `bson:"isPremium,omitempty" json:"isPremium,omitempty"`
	Decline     string             `bson:"decline,omitempty" json:"decline,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// CurrentStatus treats documents written without a status as pending.
func (a *Article) CurrentStatus() ArticleStatus {
	if a.Status == "" {
		return StatusPending
	}
	return a.Status
}

func (a *Article) Premium() bool {
	return a.IsPremium == PremiumMarker
}

// AuthoredBy compares author emails case-insensitively.
func (a *Article) AuthoredBy(email string) bool {
	return email != "" && strings.EqualFold(a.Email, email)
}

// ArticleUpdate is a partial update: nil fields are left untouched.
type ArticleUpdate struct {
	Title       *string   `json:"title" validate:"omitempty,min=1"`
	Publisher   *string   `json:"publisher"`
	Tags        *[]string `json:"tags"`
	Description *string   `json:"description"`
	Image       *string   `json:"image"`
	// Email reassigns the article to another author; only admins may.
	Email       *string   `json:"email" validate:"omitempty,email"`
	Photo       *string   `json:"photo"`
	DisplayName *string   `json:"displayName"`
	ViewCount   *int64    `json:"viewCount" validate:"omitempty,min=0"`
}

// Fields returns the stored field names and values present in the update.
func (u ArticleUpdate) Fields() map[string]any {
	out := map[string]any{}
	if u.Title != nil {
		out["title"] = *u.Title
	}
	if u.Publisher != nil {
		out["publisher"] = *u.Publisher
	}
	if u.Tags != nil {
		out["tags"] = *u.Tags
	}
	if u.Description != nil {
		out["description"] = *u.Description
	}
	if u.Image != nil {
		out["image"] = *u.Image
	}
	if u.Email != nil {
		out["email"] = *u.Email
	}
	if u.Photo != nil {
		out["photo"] = *u.Photo
	}
	if u.DisplayName != nil {
		out["displayName"] = *u.DisplayName
	}
	if u.ViewCount != nil {
		out["viewCount"] = *u.ViewCount
	}
	return out
}

func (u ArticleUpdate) Empty() bool {
	return len(u.Fields()) == 0
}

// ArticleFilter narrows GET /articles. Zero values match everything.
type ArticleFilter struct {
	Publisher   string
	Tag         string
	Status      ArticleStatus
	PremiumOnly bool
}

func (f ArticleFilter) Matches(a *Article) bool {
	if f.Publisher != "" && a.Publisher != f.Publisher {
		return false
	}
	if f.Tag != "" {
		found := false
		for _, t := range a.Tags {
			if t == f.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Status != "" && a.CurrentStatus() != f.Status {
		return false
	}
	if f.PremiumOnly && !a.Premium() {
		return false
	}
	return true
}

func ParseStatus(s string) (ArticleStatus, error) {
	switch ArticleStatus(s) {
	case StatusPending, StatusApproved, StatusDeclined:
		return ArticleStatus(s), nil
	}
	return "", fmt.Errorf("unknown article status %q", s)
}

type Action string

const (
	ActionApprove Action = "approve"
	ActionDecline Action = "decline"
	ActionPremium Action = "premium"
)

var (
	ErrInvalidTransition = errors.New("transition not allowed from current status")
	ErrDeclineReason     = errors.New("decline reason is required")
)

// Transition is an admin action on an article's lifecycle.
//
//	pending  --approve--> approve
//	pending  --decline--> declined
//	declined --approve--> approve
//	approve  --premium--> approve + isPremium
type Transition struct {
	Action Action
	Reason string
}

func Approve() Transition              { return Transition{Action: ActionApprove} }
func Decline(reason string) Transition { return Transition{Action: ActionDecline, Reason: strings.TrimSpace(reason)} }
func PromotePremium() Transition       { return Transition{Action: ActionPremium} }

func (t Transition) Validate() error {
	switch t.Action {
	case ActionApprove, ActionPremium:
		return nil
	case ActionDecline:
		if t.Reason == "" {
			return ErrDeclineReason
		}
		return nil
	}
	return fmt.Errorf("unknown action %q", t.Action)
}

// AllowedFrom lists the statuses the transition may start from.
func (t Transition) AllowedFrom() []ArticleStatus {
	switch t.Action {
	case ActionApprove:
		return []ArticleStatus{StatusPending, StatusDeclined}
	case ActionDecline:
		return []ArticleStatus{StatusPending}
	case ActionPremium:
		return []ArticleStatus{StatusApproved}
	}
	return nil
}

func (t Transition) Permits(s ArticleStatus) bool {
	for _, from := range t.AllowedFrom() {
		if from == s {
			return true
		}
	}
	return false
}

// Apply performs the transition in memory. The store applies the same
// change with a conditional update.
func (a *Article) Apply(t Transition) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if !t.Permits(a.CurrentStatus()) {
		return fmt.Errorf("%w: article is %s", ErrInvalidTransition, a.CurrentStatus())
	}
	switch t.Action {
	case ActionApprove:
		a.Status = StatusApproved
		a.Decline = ""
	case ActionDecline:
		a.Status = StatusDeclined
		a.Decline = t.Reason
	case ActionPremium:
		a.IsPremium = PremiumMarker
	}
	return nil
}
