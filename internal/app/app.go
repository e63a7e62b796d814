// Package app assembles the comment store, moderation, template tags and
// HTTP endpoints from configuration. A host program registers its content
// types, calls New, and serves App.Server.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/evcraddock/comment-utils/internal/akismet"
	"github.com/evcraddock/comment-utils/internal/comment"
	"github.com/evcraddock/comment-utils/internal/config"
	"github.com/evcraddock/comment-utils/internal/contenttype"
	"github.com/evcraddock/comment-utils/internal/db"
	"github.com/evcraddock/comment-utils/internal/email"
	"github.com/evcraddock/comment-utils/internal/moderation"
	"github.com/evcraddock/comment-utils/internal/site"
	"github.com/evcraddock/comment-utils/internal/templatetags"
	"github.com/evcraddock/comment-utils/internal/web"
)

// App holds the wired components. Spam and Notifier are nil when not
// configured.
type App struct {
	Config    config.Config
	DB        *db.DB
	Site      *site.Site
	Comments  *comment.Repository
	Sites     *site.Repository
	Types     *contenttype.Registry
	Moderator *moderation.Moderator
	Spam      *akismet.Client
	Notifier  *email.Notifier
	Library   *templatetags.Library
	Server    *web.Server
}

// OpenDB opens the database named by cfg.DB and cfg.DBDriver. SQLite falls
// back to the default path; Postgres needs a DSN.
func OpenDB(cfg config.Config) (*db.DB, error) {
	dialect, err := db.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DB
	if dialect == db.SQLite {
		if dsn == "" {
			dsn, err = db.DefaultPath()
			if err != nil {
				return nil, err
			}
		}
		return db.Open(dsn)
	}

	if dsn == "" {
		return nil, fmt.Errorf("a postgres DSN is required: pass --db or set CU_DB")
	}
	return db.OpenDialect(dialect, dsn)
}

// New opens the database and wires moderation for the content types in
// types using the rules in the config file.
func New(cfg config.Config, types *contenttype.Registry) (*App, error) {
	if types == nil {
		return nil, fmt.Errorf("content type registry is required")
	}

	database, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	a, err := build(cfg, types, database)
	if err != nil {
		return nil, errors.Join(err, database.Close())
	}
	return a, nil
}

func build(cfg config.Config, types *contenttype.Registry, database *db.DB) (*App, error) {
	a := &App{
		Config:   cfg,
		DB:       database,
		Comments: comment.NewRepository(database),
		Sites:    site.NewRepository(database),
		Types:    types,
	}

	var err error
	a.Site, err = a.Sites.Get(cfg.SiteID)
	if err != nil {
		return nil, fmt.Errorf("loading current site: %w", err)
	}

	env := &moderation.Env{Sites: a.Sites, Comments: a.Comments}

	if cfg.AkismetAPIKey != "" {
		a.Spam, err = akismet.NewClient(cfg.AkismetAPIKey, "http://"+a.Site.Domain+"/")
		if err != nil {
			return nil, err
		}
		env.Spam = a.Spam
	}

	if a.Notifier, err = newNotifier(cfg); err != nil {
		return nil, err
	}
	if a.Notifier != nil {
		env.Notifier = a.Notifier
	}

	path, err := cfg.FilePath()
	if err != nil {
		return nil, err
	}
	file, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}

	a.Moderator = moderation.New(types)
	if err := a.Moderator.RegisterRules(file.Moderation, env); err != nil {
		return nil, err
	}
	a.Comments.AddHook(a.Moderator)

	a.Library = &templatetags.Library{
		Comments:     a.Comments,
		ContentTypes: types,
		Moderator:    a.Moderator,
		SiteID:       cfg.SiteID,
	}
	if err := templatetags.Install(a.Library); err != nil {
		return nil, err
	}

	a.Server = web.NewServer(a.Comments, types, a.Library)

	slog.Info("comment moderation ready",
		"site", a.Site.Domain,
		"models", a.Moderator.Models(),
		"akismet", a.Spam != nil,
		"notifications", a.Notifier != nil)
	return a, nil
}

// newNotifier returns a manager notifier, or nil when there is nobody to
// notify or no way to send mail. Dev mode logs messages instead of sending.
func newNotifier(cfg config.Config) (*email.Notifier, error) {
	if len(cfg.Managers) == 0 {
		return nil, nil
	}

	var sender email.Sender
	switch {
	case cfg.SMTP().IsConfigured():
		sender = email.NewSMTPSender(cfg.SMTP())
	case cfg.DevMode:
		sender = email.LogSender{}
	default:
		slog.Warn("SMTP not configured, comment notifications disabled")
		return nil, nil
	}
	return email.NewNotifier(sender, cfg.Managers, cfg.NotificationTemplate)
}

// ListenAndServe serves the comment endpoints on cfg.Addr.
func (a *App) ListenAndServe() error {
	return a.Server.ListenAndServe(a.Config.Addr)
}

// Close closes the database.
func (a *App) Close() error {
	return a.DB.Close()
}
