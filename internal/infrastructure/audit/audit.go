package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"marketplace/pkg/logger"
)

const (
	ActionUnauthorizedAccess   = "UNAUTHORIZED_ACCESS_ATTEMPT"
	ActionUnauthorizedRole     = "UNAUTHORIZED_ROLE_ACCESS"
	ActionUnauthorizedResource = "UNAUTHORIZED_RESOURCE_ACCESS"
	ActionPrivilegeEscalation  = "PRIVILEGE_ESCALATION_ATTEMPT"
	ActionAdminSelfDemotion    = "ADMIN_SELF_DEMOTION_ATTEMPT"
	ActionAdminUpdateUser      = "ADMIN_UPDATE_USER"
	ActionAdminDeleteUser      = "ADMIN_DELETE_USER"
	ActionAdminApproveProduct  = "ADMIN_APPROVE_PRODUCT"
	ActionAdminRejectProduct   = "ADMIN_REJECT_PRODUCT"
	ActionAdminUpdateOrder     = "ADMIN_UPDATE_ORDER_STATUS"
	ActionSellerFulfillment    = "SELLER_UPDATE_FULFILLMENT"
	ActionPaymentWebhook       = "PAYMENT_WEBHOOK"
)

const (
	DefaultRecentLimit = 100
	searchWindow       = 1000
	redacted           = "[REDACTED]"
	maxLineBytes       = 1024 * 1024
)

var sensitiveWords = regexp.MustCompile(`(?i)password|token|secret|key`)

type Entry struct {
	Action         string                 `json:"action"`
	UserID         string                 `json:"userId,omitempty"`
	IP             string                 `json:"ip,omitempty"`
	UserAgent      string                 `json:"userAgent,omitempty"`
	Endpoint       string                 `json:"endpoint,omitempty"`
	Method         string                 `json:"method,omitempty"`
	RequestBody    interface{}            `json:"requestBody,omitempty"`
	ResponseStatus int                    `json:"responseStatus,omitempty"`
	Details        map[string]interface{} `json:"details,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
	LogID          string                 `json:"logId,omitempty"`
}

type Filter struct {
	Action    string
	UserID    string
	IP        string
	StartDate *time.Time
	EndDate   *time.Time
}

type Logger interface {
	// Log never fails the caller; write errors go to the process log.
	Log(entry Entry)
	GetRecentLogs(limit int) []Entry
	SearchLogs(filter Filter) []Entry
}

// FileLogger appends JSON lines to a size-rotated file.
type FileLogger struct {
	mu     sync.Mutex
	path   string
	writer *lumberjack.Logger
	now    func() time.Time
}

func NewFileLogger(path string, maxSizeMB, maxFiles int) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	return &FileLogger{
		path: path,
		writer: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxFiles,
		},
		now: time.Now,
	}, nil
}

func (l *FileLogger) Log(entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}
	entry.LogID = ""

	raw, err := json.Marshal(entry)
	if err != nil {
		logger.Error("audit: encode %s: %v", entry.Action, err)
		return
	}

	var record map[string]interface{}
	if err := json.Unmarshal(raw, &record); err != nil {
		logger.Error("audit: encode %s: %v", entry.Action, err)
		return
	}
	for k, v := range record {
		if k == "timestamp" {
			continue
		}
		if isSensitiveKey(k) {
			record[k] = redacted
			continue
		}
		record[k] = Redact(v)
	}

	sanitized, _ := json.Marshal(record)
	sum := sha256.Sum256([]byte(string(sanitized) + strconv.FormatInt(entry.Timestamp.UnixMilli(), 10)))
	record["logId"] = hex.EncodeToString(sum[:])[:16]

	line, err := json.Marshal(record)
	if err != nil {
		logger.Error("audit: encode %s: %v", entry.Action, err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.writer.Write(append(line, '\n')); err != nil {
		logger.Error("audit: write %s: %v", entry.Action, err)
		return
	}
	logger.Debug("[AUDIT] %s", entry.Action)
}

// Redact replaces sensitive keys and sensitive words inside strings, recursively.
func Redact(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return sensitiveWords.ReplaceAllString(val, redacted)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = Redact(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			if isSensitiveKey(k) {
				out[k] = redacted
				continue
			}
			out[k] = Redact(item)
		}
		return out
	default:
		return v
	}
}

func isSensitiveKey(k string) bool {
	return sensitiveWords.MatchString(strings.ToLower(k))
}

// GetRecentLogs returns the last limit entries of the active file, oldest first.
func (l *FileLogger) GetRecentLogs(limit int) []Entry {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error("audit: read log: %v", err)
		}
		return []Entry{}
	}
	defer f.Close()

	ring := make([]string, 0, limit)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(ring) == limit {
			ring = ring[1:]
		}
		ring = append(ring, line)
	}
	if err := scanner.Err(); err != nil {
		logger.Error("audit: scan log: %v", err)
	}

	entries := make([]Entry, 0, len(ring))
	for _, line := range ring {
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func (l *FileLogger) SearchLogs(filter Filter) []Entry {
	matches := []Entry{}
	for _, entry := range l.GetRecentLogs(searchWindow) {
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.UserID != "" && entry.UserID != filter.UserID {
			continue
		}
		if filter.IP != "" && entry.IP != filter.IP {
			continue
		}
		if filter.StartDate != nil && entry.Timestamp.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && entry.Timestamp.After(*filter.EndDate) {
			continue
		}
		matches = append(matches, entry)
	}
	return matches
}

func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer.Close()
}
