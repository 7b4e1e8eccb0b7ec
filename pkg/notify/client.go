// Copyright 2025 Certen Protocol
//
// Firestore Client
// Firebase Admin SDK client for publishing pipeline run notifications

package notify

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	gcpfirestore "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// Client wraps the Firestore client with pipeline-specific functionality.
// It is the operational notification sink for an operator dashboard to read.
// The transform stage writes an IntegrityAlert here for unresolved devices;
// other stages' IntegrityErrors are not written, and no stage writes a
// RunSummary.
type Client struct {
	app       *firebase.App
	firestore *gcpfirestore.Client
	projectID string
	logger    *log.Logger
	enabled   bool
	mu        sync.RWMutex
}

// ClientConfig holds configuration for the Firestore client
type ClientConfig struct {
	// ProjectID is the Firebase/GCP project ID
	ProjectID string

	// CredentialsFile is the path to the service account JSON file
	// If empty, uses GOOGLE_APPLICATION_CREDENTIALS environment variable
	CredentialsFile string

	// Enabled controls whether Firestore operations are actually performed
	// If false, all operations are no-ops (useful for local development)
	Enabled bool

	// Logger for client operations
	Logger *log.Logger
}

// DefaultConfig returns a ClientConfig with values from environment variables
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		ProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		Enabled:         getEnvBool("NOTIFY_ENABLED", false),
		Logger:          log.New(os.Stdout, "[Notify] ", log.LstdFlags),
	}
}

// NewClient creates a new Firestore-backed notification client
func NewClient(ctx context.Context, cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, "[Notify] ", log.LstdFlags)
	}

	client := &Client{
		projectID: cfg.ProjectID,
		logger:    cfg.Logger,
		enabled:   cfg.Enabled,
	}

	if !cfg.Enabled {
		cfg.Logger.Println("notification sink is DISABLED - running in no-op mode")
		return client, nil
	}

	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required when notifications are enabled")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	config := &firebase.Config{ProjectID: cfg.ProjectID}

	app, err := firebase.NewApp(ctx, config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	client.app = app
	client.firestore = firestoreClient

	cfg.Logger.Printf("notification client initialized for project: %s", cfg.ProjectID)
	return client, nil
}

// Close closes the Firestore client
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.firestore != nil {
		return c.firestore.Close()
	}
	return nil
}

// IsEnabled returns whether the notification sink is enabled
func (c *Client) IsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// Collection returns a reference to a Firestore collection
func (c *Client) Collection(path string) *gcpfirestore.CollectionRef {
	if !c.IsEnabled() || c.firestore == nil {
		return nil
	}
	return c.firestore.Collection(path)
}

// Doc returns a reference to a Firestore document
func (c *Client) Doc(path string) *gcpfirestore.DocumentRef {
	if !c.IsEnabled() || c.firestore == nil {
		return nil
	}
	return c.firestore.Doc(path)
}

// IntegrityAlert documents one IntegrityError raised during a pipeline run,
// for an operator dashboard to surface without tailing logs.
type IntegrityAlert struct {
	AlertID     string    `firestore:"-"`
	Environment string    `firestore:"environment"`
	Stage       string    `firestore:"stage"`
	Reason      string    `firestore:"reason"`
	Items       []string  `firestore:"items"`
	OccurredAt  time.Time `firestore:"occurredAt"`
}

// PublishIntegrityAlert records an IntegrityError under
// /pipelineRuns/{environment}/integrityAlerts/{alertID}.
func (c *Client) PublishIntegrityAlert(ctx context.Context, alert *IntegrityAlert) error {
	if !c.IsEnabled() {
		c.logger.Printf("notifications disabled - skipping integrity alert env=%s stage=%s reason=%s",
			alert.Environment, alert.Stage, alert.Reason)
		return nil
	}
	if c.firestore == nil {
		return fmt.Errorf("notify: client not initialized")
	}

	if alert.AlertID == "" {
		alert.AlertID = fmt.Sprintf("%s_%d", alert.Stage, alert.OccurredAt.UnixNano())
	}

	docPath := fmt.Sprintf("pipelineRuns/%s/integrityAlerts/%s", alert.Environment, alert.AlertID)
	_, err := c.firestore.Doc(docPath).Set(ctx, alert)
	if err != nil {
		c.logger.Printf("failed to publish integrity alert: %v", err)
		return fmt.Errorf("notify: failed to publish integrity alert: %w", err)
	}

	c.logger.Printf("published integrity alert: env=%s stage=%s reason=%s items=%d",
		alert.Environment, alert.Stage, alert.Reason, len(alert.Items))
	return nil
}

// RunSummary documents the outcome of a single stage invocation, matching
// the exit-code semantics spec.md section 6 defines (success, fatal error,
// partial success).
type RunSummary struct {
	SummaryID     string    `firestore:"-"`
	Environment   string    `firestore:"environment"`
	Stage         string    `firestore:"stage"`
	Date          string    `firestore:"date"`
	Outcome       string    `firestore:"outcome"`
	ItemsTotal    int       `firestore:"itemsTotal"`
	ItemsSucceeded int      `firestore:"itemsSucceeded"`
	ItemsFailed   int       `firestore:"itemsFailed"`
	ErrorMessage  string    `firestore:"errorMessage,omitempty"`
	StartedAt     time.Time `firestore:"startedAt"`
	EndedAt       time.Time `firestore:"endedAt"`
}

// PublishRunSummary records a stage's run summary under
// /pipelineRuns/{environment}/runSummaries/{summaryID}.
func (c *Client) PublishRunSummary(ctx context.Context, summary *RunSummary) error {
	if !c.IsEnabled() {
		c.logger.Printf("notifications disabled - skipping run summary env=%s stage=%s outcome=%s",
			summary.Environment, summary.Stage, summary.Outcome)
		return nil
	}
	if c.firestore == nil {
		return fmt.Errorf("notify: client not initialized")
	}

	if summary.SummaryID == "" {
		summary.SummaryID = fmt.Sprintf("%s_%s_%d", summary.Stage, summary.Date, summary.EndedAt.UnixNano())
	}

	docPath := fmt.Sprintf("pipelineRuns/%s/runSummaries/%s", summary.Environment, summary.SummaryID)
	_, err := c.firestore.Doc(docPath).Set(ctx, summary)
	if err != nil {
		c.logger.Printf("failed to publish run summary: %v", err)
		return fmt.Errorf("notify: failed to publish run summary: %w", err)
	}

	c.logger.Printf("published run summary: env=%s stage=%s outcome=%s total=%d succeeded=%d failed=%d",
		summary.Environment, summary.Stage, summary.Outcome, summary.ItemsTotal, summary.ItemsSucceeded, summary.ItemsFailed)
	return nil
}

// LatestRunSummary retrieves the most recent run summary for a stage.
func (c *Client) LatestRunSummary(ctx context.Context, environment, stage string) (*RunSummary, error) {
	if !c.IsEnabled() || c.firestore == nil {
		return nil, nil
	}

	collPath := fmt.Sprintf("pipelineRuns/%s/runSummaries", environment)
	query := c.firestore.Collection(collPath).
		Where("stage", "==", stage).
		OrderBy("endedAt", gcpfirestore.Desc).
		Limit(1)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("notify: failed to query run summaries: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	var summary RunSummary
	if err := docs[0].DataTo(&summary); err != nil {
		return nil, fmt.Errorf("notify: failed to parse run summary: %w", err)
	}
	summary.SummaryID = docs[0].Ref.ID
	return &summary, nil
}

// Batch creates a new Firestore batch for atomic writes
func (c *Client) Batch() *gcpfirestore.WriteBatch {
	if !c.IsEnabled() || c.firestore == nil {
		return nil
	}
	return c.firestore.Batch()
}

// RunTransaction runs a Firestore transaction
func (c *Client) RunTransaction(ctx context.Context, f func(context.Context, *gcpfirestore.Transaction) error) error {
	if !c.IsEnabled() || c.firestore == nil {
		return nil
	}
	return c.firestore.RunTransaction(ctx, f)
}

// Health checks if the Firestore connection is healthy
func (c *Client) Health(ctx context.Context) error {
	if !c.IsEnabled() {
		return nil
	}
	if c.firestore == nil {
		return fmt.Errorf("notify: client not initialized")
	}

	_, err := c.firestore.Collection("_health_check").Doc("ping").Get(ctx)
	if err != nil {
		// NotFound is fine; it just means connectivity works.
		_ = err
	}
	return nil
}

func getEnvBool(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val == "true" || val == "1" || val == "yes"
}
