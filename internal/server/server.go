package server

import (
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"disasterdocs/internal/cluster"
	"disasterdocs/internal/media"
	"disasterdocs/internal/storage"
	"disasterdocs/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-chi/httprate"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

//go:embed templates static
var uiFS embed.FS
var decoder = form.NewDecoder()

// cardImageWidth is the width hint for gallery thumbnails.
const cardImageWidth = 600

// SubmissionStore is the document-store query and create interface the
// handlers depend on.
type SubmissionStore interface {
	ApprovedSubmissions(ctx context.Context, filter types.SubmissionFilter) ([]*types.Submission, error)
	CountApproved(ctx context.Context, filter types.SubmissionFilter) (int, error)
	GeolocatedSubmissions(ctx context.Context) ([]*types.Submission, error)
	ApprovedSubmission(ctx context.Context, id string) (*types.Submission, error)
	CreateSubmission(ctx context.Context, s *types.Submission) error
}

type AssetStore interface {
	Store(ctx context.Context, u storage.Upload) (types.AssetDescriptor, error)
	Delete(ctx context.Context, reference string) error
}

type Service struct {
	logger      *logrus.Logger
	config      *types.Config
	submissions SubmissionStore
	assets      AssetStore
	templates   *template.Template

	resolver     *media.Resolver
	cardResolver *media.Resolver
	clusterer    *cluster.Clusterer

	cookie *securecookie.SecureCookie

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	submissions SubmissionStore,
	assets AssetStore,
) (*Service, error) {
	mux := flow.New()

	hashKey, blockKey, err := cookieKeys(config)
	if err != nil {
		return nil, err
	}
	if hashKey == nil {
		logger.Warn("COOKIE_HASH_KEY not set, using an ephemeral key; flash messages will not survive restarts")
		hashKey = securecookie.GenerateRandomKey(32)
		blockKey = securecookie.GenerateRandomKey(32)
	}

	resolver := media.NewResolver(config.AssetBaseURL, config.ImageWidth)

	s := &Service{
		logger:      logger,
		config:      config,
		submissions: submissions,
		assets:      assets,

		resolver:     resolver,
		cardResolver: resolver.WithWidth(cardImageWidth),
		clusterer:    cluster.NewClusterer(),

		cookie: securecookie.New(hashKey, blockKey),

		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	if err := s.buildRouter(mux); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the routed handler, mainly for tests.
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) buildRouter(r *flow.Mux) error {
	r.Use(s.RecoverPanic)
	r.Use(s.RequestID)
	r.Use(s.LoggingMiddleware)

	// Middleware only wraps matched routes, so trailing slashes are
	// handled on the not found path.
	r.NotFound = s.StripTrailingSlash(http.HandlerFunc(s.notFound))

	r.HandleFunc("/", s.handleGallery, http.MethodGet)
	r.HandleFunc("/submissions/:id", s.handleSubmissionDetail, http.MethodGet)

	r.HandleFunc("/map", s.handleMap, http.MethodGet)
	r.HandleFunc("/map/groups/:key", s.handleSelectGroup, http.MethodGet)
	r.HandleFunc("/api/clusters", s.handleClusters, http.MethodGet)

	r.HandleFunc("/upload", s.handleGetUpload, http.MethodGet)
	r.Group(func(r *flow.Mux) {
		rate := s.config.UploadRatePerMinute
		if rate <= 0 {
			rate = 10
		}
		r.Use(httprate.LimitByIP(rate, time.Minute))

		r.HandleFunc("/upload", s.handlePostUpload, http.MethodPost)
	})

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	staticRoot, err := fs.Sub(uiFS, "static")
	if err != nil {
		return fmt.Errorf("failed to mount static assets: %w", err)
	}
	r.Handle("/static/...", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))), http.MethodGet)

	return nil
}

func cookieKeys(config *types.Config) ([]byte, []byte, error) {
	if config.CookieHashKey == "" {
		return nil, nil, nil
	}

	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, nil, fmt.Errorf("decode COOKIE_HASH_KEY: %w", err)
	}

	var blockKey []byte
	if config.CookieBlockKey != "" {
		blockKey, err = base64.StdEncoding.DecodeString(config.CookieBlockKey)
		if err != nil {
			return nil, nil, fmt.Errorf("decode COOKIE_BLOCK_KEY: %w", err)
		}
	}

	return hashKey, blockKey, nil
}

func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"upper": strings.ToUpper,
		"date": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return "N/A"
			}
			return t.Format("Jan 2, 2006")
		},
		"orDefault": orDefault,
		"coord": func(v float64) string {
			return fmt.Sprintf("%.4f", v)
		},
	}

	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(uiFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(uiFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}
