// Package telemetry sends anonymous usage events to PostHog.
//
// Nothing is sent unless LANGSYNC_POSTHOG_API_KEY is set. Commands are
// buffered with RecordCommand and flushed as one session event on Shutdown.
package telemetry

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"

	"github.com/dysgraphia-support/langsync/internal/bundles"
	"github.com/dysgraphia-support/langsync/internal/cities"
	"github.com/dysgraphia-support/langsync/internal/config"
	"github.com/dysgraphia-support/langsync/internal/constants"
	"github.com/dysgraphia-support/langsync/internal/environment"
	"github.com/dysgraphia-support/langsync/internal/locale"
	"github.com/dysgraphia-support/langsync/internal/perf"
)

const (
	endpoint            = "https://eu.i.posthog.com"
	disableEnvVar       = "LANGSYNC_DISABLE_TELEMETRY"
	defaultFlushTimeout = 2 * time.Second
	commandSpanPrefix   = "app.command."
)

type Client interface {
	io.Closer
	Enqueue(posthog.Message) error
}

type Logger interface {
	Debugf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}

type CommandTelemetry struct {
	Command   string                 `json:"command"`
	Success   bool                   `json:"success"`
	Error     error                  `json:"error,omitempty"`
	ExitCode  int                    `json:"exitCode"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

type recordedCommand struct {
	Name          string
	Success       bool
	ExitCode      int
	ErrorCategory string
	ErrorMessage  string
	Arguments     map[string]interface{}
	Extra         map[string]interface{}
}

type telemetrySnapshot struct {
	client       Client
	machineID    string
	logger       Logger
	flushTimeout time.Duration
	enabled      bool
}

var (
	stateMu      sync.Mutex
	client       Client
	machineID    string
	logger       Logger = noopLogger{}
	flushTimeout        = defaultFlushTimeout
	enabled      bool
	commands     []recordedCommand

	machineIDProvider = defaultMachineID
	clientBuilder     = defaultClientBuilder
)

func defaultMachineID() (string, error) {
	if id, ok := environment.MachineID(); ok {
		return id, nil
	}
	return machineid.ProtectedID(constants.AppName)
}

func defaultClientBuilder(apiKey, endpoint string) (Client, error) {
	return posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
}

// Init prepares the client. It is safe to call more than once.
func Init() {
	stateMu.Lock()
	defer stateMu.Unlock()

	if client != nil {
		return
	}
	if disabled() {
		enabled = false
		return
	}

	apiKey := environment.PosthogAPIKey()
	if apiKey == "" {
		enabled = false
		return
	}

	id, err := machineIDProvider()
	if err != nil || id == "" {
		id = "unknown"
	}

	built, err := clientBuilder(apiKey, endpoint)
	if err != nil {
		logger.Debugf("telemetry disabled: %v", err)
		enabled = false
		return
	}

	client = built
	machineID = id
	enabled = true
}

func disabled() bool {
	value, present := os.LookupEnv(disableEnvVar)
	if !present {
		return false
	}
	value = strings.ToLower(strings.TrimSpace(value))
	return value != "" && value != "0" && value != "false"
}

// SetLogger routes telemetry diagnostics to the debug log.
func SetLogger(debugLogger Logger) {
	stateMu.Lock()
	defer stateMu.Unlock()

	if debugLogger == nil {
		logger = noopLogger{}
		return
	}
	logger = debugLogger
}

func snapshot() telemetrySnapshot {
	stateMu.Lock()
	defer stateMu.Unlock()

	return telemetrySnapshot{
		client:       client,
		machineID:    machineID,
		logger:       logger,
		flushTimeout: flushTimeout,
		enabled:      enabled,
	}
}

// Capture enqueues a single event immediately.
func Capture(event string, properties map[string]interface{}) {
	captureWithSnapshot(snapshot(), event, properties)
}

func captureWithSnapshot(snap telemetrySnapshot, event string, properties map[string]interface{}) {
	if !snap.enabled || snap.client == nil || strings.TrimSpace(event) == "" {
		return
	}

	props := posthog.NewProperties().Set("version", environment.AppVersion())
	for key, value := range properties {
		props.Set(key, value)
	}

	if err := snap.client.Enqueue(posthog.Capture{
		Event:      event,
		DistinctId: snap.machineID,
		Properties: props,
	}); err != nil {
		snap.logger.Debugf("telemetry enqueue failed: %v", err)
	}
}

// RecordCommand buffers a command outcome for the session event.
func RecordCommand(command CommandTelemetry) {
	if strings.TrimSpace(command.Command) == "" {
		return
	}

	recorded := recordedCommand{
		Name:          command.Command,
		Success:       command.Success,
		ExitCode:      commandExitCode(command),
		ErrorCategory: errorCategory(command.Error),
		Arguments:     command.Arguments,
		Extra:         command.Extra,
	}
	if command.Error != nil {
		recorded.ErrorMessage = command.Error.Error()
	}

	stateMu.Lock()
	commands = append(commands, recorded)
	stateMu.Unlock()
}

func commandExitCode(command CommandTelemetry) int {
	if command.ExitCode != 0 {
		return command.ExitCode
	}
	if command.Success {
		return 0
	}
	return 1
}

func errorCategory(err error) string {
	if err == nil {
		return ""
	}

	var (
		readErr         *locale.ReadError
		writeErr        *locale.WriteError
		schemaErr       *cities.SchemaError
		citiesReadErr   *cities.ReadError
		citiesWriteErr  *cities.WriteError
		configErr       *config.ConfigFileInvalidError
		unknownBundle   *bundles.UnknownBundleError
		invalidBundle   *bundles.InvalidBundleError
		unknownLocale   *config.UnknownLocaleError
		configExistsErr *config.ConfigFileExistsError
	)

	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &readErr):
		return "locale_read"
	case errors.As(err, &writeErr):
		return "locale_write"
	case errors.As(err, &schemaErr):
		return "dataset_schema"
	case errors.As(err, &citiesReadErr):
		return "dataset_read"
	case errors.As(err, &citiesWriteErr):
		return "dataset_write"
	case errors.As(err, &configErr):
		return "config_invalid"
	case errors.As(err, &configExistsErr):
		return "config_exists"
	case errors.As(err, &unknownBundle):
		return "unknown_bundle"
	case errors.As(err, &invalidBundle):
		return "invalid_bundle"
	case errors.As(err, &unknownLocale):
		return "unknown_locale"
	default:
		return "unknown"
	}
}

// Shutdown sends the session event and closes the client, giving up after
// the flush timeout or when ctx ends.
func Shutdown(ctx context.Context) {
	stateMu.Lock()
	snap := telemetrySnapshot{
		client:       client,
		machineID:    machineID,
		logger:       logger,
		flushTimeout: flushTimeout,
		enabled:      enabled,
	}
	recorded := commands
	commands = nil
	client = nil
	enabled = false
	stateMu.Unlock()

	if !snap.enabled || snap.client == nil {
		return
	}

	spans, err := perf.GetSpans()
	if err != nil {
		snap.logger.Debugf("telemetry could not read perf spans: %v", err)
	}

	captureWithSnapshot(snap, resolveSessionName(recorded), map[string]interface{}{
		"type":         "session",
		"commands":     buildCommandSummaries(recorded, spans),
		"work_time_ms": workTime(spans).Milliseconds(),
	})

	closeWithTimeout(ctx, snap)
}

func closeWithTimeout(ctx context.Context, snap telemetrySnapshot) {
	if ctx == nil {
		ctx = context.Background()
	}

	done := make(chan error, 1)
	go func() {
		done <- snap.client.Close()
	}()

	timer := time.NewTimer(snap.flushTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			snap.logger.Debugf("telemetry close failed: %v", err)
		}
	case <-timer.C:
		snap.logger.Debugf("telemetry flush timed out after %s", snap.flushTimeout)
	case <-ctx.Done():
		snap.logger.Debugf("telemetry flush interrupted: %v", ctx.Err())
	}
}

func resolveSessionName(recorded []recordedCommand) string {
	if len(recorded) == 1 && strings.TrimSpace(recorded[0].Name) != "" {
		return recorded[0].Name
	}
	if len(recorded) > 1 {
		return "session"
	}
	return "unknown"
}

func buildCommandSummaries(recorded []recordedCommand, spans []perf.SpanSnapshot) []map[string]interface{} {
	summaries := make([]map[string]interface{}, 0, len(recorded))
	for _, command := range recorded {
		summary := map[string]interface{}{
			"name":      command.Name,
			"success":   command.Success,
			"exit_code": command.ExitCode,
		}
		if command.ErrorCategory != "" {
			summary["error_category"] = command.ErrorCategory
		}
		if command.ErrorMessage != "" {
			summary["error"] = command.ErrorMessage
		}
		if len(command.Arguments) > 0 {
			summary["arguments"] = command.Arguments
		}
		if len(command.Extra) > 0 {
			summary["extra"] = command.Extra
		}
		if duration, ok := commandDurationFromPerf(command.Name, spans); ok {
			summary["duration_ms"] = duration.Milliseconds()
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// commandDurationFromPerf returns the duration of the latest span recorded
// for the command.
func commandDurationFromPerf(command string, spans []perf.SpanSnapshot) (time.Duration, bool) {
	if command == "" || len(spans) == 0 {
		return 0, false
	}

	matches := perf.FilterSpansByName(spans, commandSpanPrefix+command)
	if len(matches) == 0 {
		return 0, false
	}

	latest := matches[0]
	for _, span := range matches[1:] {
		if span.EndTime.After(latest.EndTime) {
			latest = span
		}
	}
	return latest.EndTime.Sub(latest.StartTime), true
}

func workTime(spans []perf.SpanSnapshot) time.Duration {
	var total time.Duration
	for _, span := range spans {
		if strings.HasPrefix(span.Name, commandSpanPrefix) {
			total += span.EndTime.Sub(span.StartTime)
		}
	}
	return total
}

// Reset clears all state (tests only).
func Reset() {
	stateMu.Lock()
	defer stateMu.Unlock()

	client = nil
	machineID = ""
	logger = noopLogger{}
	flushTimeout = defaultFlushTimeout
	enabled = false
	commands = nil
	machineIDProvider = defaultMachineID
	clientBuilder = defaultClientBuilder
}
