package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidDefinition = errors.New("invalid definition")
	ErrNotFound          = errors.New("not found")

	// ErrHistoryAppend marks the one non-atomic failure mode of an edit:
	// the definition update is already durable when the history append
	// fails, so callers must not retry the whole edit blindly.
	ErrHistoryAppend = errors.New("history append failed")
)

// Definition is one registered HTTP API under a group. Definitions are
// tombstoned on delete, never physically removed.
type Definition struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	Name        string          `json:"name"`
	URL         string          `json:"url"`
	Description string          `json:"description"`
	ProdURL     string          `json:"prod_url"`
	Options     json.RawMessage `json:"options,omitempty"`
	Creator     string          `json:"creator"`
	Manager     string          `json:"manager"`
	Followers   FollowerSet     `json:"followers"`
	Deleted     bool            `json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	ModifiedAt  time.Time       `json:"modified_at"`
}

func (d Definition) Validate() error {
	if err := ValidateID(d.ID); err != nil {
		return err
	}
	if err := ValidateID(d.GroupID); err != nil {
		return err
	}
	if d.Name == "" {
		return ErrInvalidDefinition
	}
	if len(d.Options) > 0 && !json.Valid(d.Options) {
		return ErrInvalidDefinition
	}
	return nil
}

func ValidateID(id string) error {
	if id == "" || uuid.Validate(id) != nil {
		return ErrInvalidID
	}
	return nil
}

// Patch is the whitelisted set of fields an edit may change. Nil fields
// are left untouched; unknown fields are rejected at the transport layer.
type Patch struct {
	Name        *string
	URL         *string
	Description *string
	ProdURL     *string
	Options     *json.RawMessage
	Manager     *string
}

// Apply merges the patch onto def and returns the merged copy. The
// follower list, creator, group and timestamps are never patched.
func (p Patch) Apply(def Definition) Definition {
	if p.Name != nil {
		def.Name = *p.Name
	}
	if p.URL != nil {
		def.URL = *p.URL
	}
	if p.Description != nil {
		def.Description = *p.Description
	}
	if p.ProdURL != nil {
		def.ProdURL = *p.ProdURL
	}
	if p.Options != nil {
		def.Options = *p.Options
	}
	if p.Manager != nil {
		def.Manager = *p.Manager
	}
	return def
}

// SearchQuery describes a definition listing. Text matches name, url,
// description, production url and the method option case-insensitively;
// CreatorIDs widen the match to definitions created by those users.
type SearchQuery struct {
	GroupID         string
	Text            string
	CreatorIDs      []string
	Page            int
	Limit           int
	OrderByModified bool
}

func (q SearchQuery) Normalize() SearchQuery {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 30
	}
	if q.Limit > 200 {
		q.Limit = 200
	}
	return q
}

func (q SearchQuery) Validate() error {
	if q.GroupID != "" {
		if err := ValidateID(q.GroupID); err != nil {
			return err
		}
	}
	return nil
}

// PageInfo accompanies every listing response.
type PageInfo struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Count int64 `json:"count"`
}
