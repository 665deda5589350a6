package supabase

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"
	"luminoso-backend/internal/config"
	"luminoso-backend/internal/models"
)

// Client talks to the project's PostgREST endpoint with the service role key.
type Client struct {
	Supabase *supabase.Client
	Config   *config.Config
}

func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
	}, nil
}

type tokenRow struct {
	Token string `json:"token"`
}

// ActiveAdminTokens lists the push tokens of admins that opted in.
func (c *Client) ActiveAdminTokens(ctx context.Context) ([]string, error) {
	var rows []tokenRow
	_, err := c.Supabase.From("fcm_tokens").
		Select("token", "", false).
		Eq("user_type", models.UserTypeAdmin).
		Eq("is_active", "true").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch admin tokens: %w", err)
	}

	tokens := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Token != "" {
			tokens = append(tokens, r.Token)
		}
	}
	return tokens, nil
}
