package bot

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tg-filedrop/internal/config"
	"tg-filedrop/internal/logger"

	"github.com/mymmrac/telego"
)

// WebhookServer is the HTTP server carrying the webhook and the ops endpoints
type WebhookServer struct {
	Mux      *http.ServeMux
	server   *http.Server
	certFile string
	keyFile  string
}

// NewServer creates a server on the configured listen port with an empty mux
func NewServer(cfg config.WebhookConfig) *WebhookServer {
	listenPort := cfg.ListenPort
	if listenPort == "" {
		listenPort = "8443"
		logger.Infof("Using default listen port: %s", listenPort)
	}

	mux := http.NewServeMux()
	return &WebhookServer{
		Mux: mux,
		server: &http.Server{
			Addr:              "0.0.0.0:" + listenPort,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		certFile: cfg.CertFile,
		keyFile:  cfg.KeyFile,
	}
}

// Start serves until Shutdown; it returns http.ErrServerClosed after a clean stop
func (ws *WebhookServer) Start() error {
	logger.Infof("Starting HTTP server on %s", ws.server.Addr)

	if ws.certFile != "" && ws.keyFile != "" {
		logger.Infof("Using TLS with cert: %s, key: %s", ws.certFile, ws.keyFile)
		return ws.server.ListenAndServeTLS(ws.certFile, ws.keyFile)
	}

	logger.Infof("Running without TLS. Make sure you have a HTTPS proxy in front of this server")
	return ws.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (ws *WebhookServer) Shutdown(ctx context.Context) error {
	return ws.server.Shutdown(ctx)
}

// SetupWebhook registers the webhook with Telegram and routes its path on a
// new server's mux
func SetupWebhook(ctx context.Context, bot *telego.Bot, cfg config.WebhookConfig, secretToken string) (<-chan telego.Update, *WebhookServer, error) {
	if cfg.Endpoint == "" {
		return nil, nil, fmt.Errorf("webhook endpoint is required")
	}

	if (cfg.CertFile == "" || cfg.KeyFile == "") && !strings.HasPrefix(cfg.Endpoint, "https://") {
		return nil, nil, fmt.Errorf("HTTPS configuration required: set cert_file and key_file in config or use a HTTPS proxy")
	}

	webhookPath, err := webhookPath(cfg.Endpoint)
	if err != nil {
		return nil, nil, err
	}

	logger.Infof("Setting webhook to: %s", cfg.Endpoint)
	err = bot.SetWebhook(ctx, &telego.SetWebhookParams{
		URL:            cfg.Endpoint,
		AllowedUpdates: allowedUpdates,
		SecretToken:    secretToken,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set webhook: %w", err)
	}

	if info, err := bot.GetWebhookInfo(ctx); err != nil {
		logger.Warningf("Failed to get webhook info: %v", err)
	} else {
		logger.Infof("Webhook info: URL=%s, HasCustomCert=%v, PendingUpdateCount=%d",
			info.URL, info.HasCustomCertificate, info.PendingUpdateCount)
		if info.LastErrorDate > 0 {
			logger.Infof("Webhook last error: [%d] %s", info.LastErrorDate, info.LastErrorMessage)
		}
	}

	server := NewServer(cfg)
	updates, err := bot.UpdatesViaWebhook(ctx,
		telego.WebhookHTTPServeMux(server.Mux, webhookPath, secretToken),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get updates channel: %w", err)
	}
	return updates, server, nil
}

// webhookPath extracts the path Telegram will post to, defaulting to /webhook
func webhookPath(endpoint string) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid webhook endpoint: %w", err)
	}
	if parsed.Path == "" || parsed.Path == "/" {
		logger.Infof("No path specified in webhook endpoint, using default path: /webhook")
		return "/webhook", nil
	}
	return parsed.Path, nil
}

// DebugInfo renders the webhook state for the debug endpoint
func DebugInfo(ctx context.Context, bot *telego.Bot, username string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bot username: %s\n", username)

	info, err := bot.GetWebhookInfo(ctx)
	if err != nil {
		fmt.Fprintf(&b, "Error getting webhook info: %v", err)
		return b.String()
	}
	if info.URL == "" {
		b.WriteString("Mode: long polling")
		return b.String()
	}

	fmt.Fprintf(&b, "Webhook URL: %s\n", info.URL)
	fmt.Fprintf(&b, "Custom Certificate: %v\n", info.HasCustomCertificate)
	fmt.Fprintf(&b, "Pending Updates: %d", info.PendingUpdateCount)
	if info.LastErrorDate > 0 {
		errorTime := time.Unix(info.LastErrorDate, 0)
		fmt.Fprintf(&b, "\nLast Error: [%s] %s", errorTime.Format(time.DateTime), info.LastErrorMessage)
	}
	return b.String()
}
