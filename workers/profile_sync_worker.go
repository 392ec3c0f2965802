// workers/profile_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"confession-system/models"

	"gorm.io/gorm"
)

// FarcasterProfile matches the JSON the hub proxy returns per FID.
type FarcasterProfile struct {
	Fid           int64     `json:"fid"`
	Username      string    `json:"username"`
	PowerBadge    bool      `json:"power_badge"`
	FollowerCount int64     `json:"follower_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type getProfileChangesResponse struct {
	Profiles []FarcasterProfile `json:"profiles"`
}

// ProfileSyncWorker keeps the local Identity rows' power-badge and
// follower-count fields fresh so the bypass rules work on current data
// instead of whatever the client last sent.
type ProfileSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	serviceToken string
	httpClient   *http.Client
}

func NewProfileSyncWorker(db *gorm.DB) *ProfileSyncWorker {
	baseURL := os.Getenv("FARCASTER_HUB_URL")
	if baseURL == "" {
		log.Fatal("FARCASTER_HUB_URL environment variable is required for profile sync")
	}
	token := os.Getenv("FARCASTER_HUB_TOKEN")

	return &ProfileSyncWorker{
		db:           db,
		interval:     5 * time.Minute,
		baseURL:      baseURL,
		serviceToken: token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Farcaster Profile Sync Worker (hub → identities)…")
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial profile sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.getLastSyncTime()); err != nil {
				log.Printf("❌ Profile sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Farcaster Profile Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt of any linked identity.
func (w *ProfileSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM identities WHERE fid IS NOT NULL AND deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch pulls profile changes since the given time and updates the
// capability fields of already-linked identities. The wallet↔FID link
// itself is never created or changed here.
func (w *ProfileSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid hub base URL '%s': %w", w.baseURL, err)
	}
	base = base.JoinPath("/v1/profiles/changes")

	q := base.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	base.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", base.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build profile sync request: %w", err)
	}
	if w.serviceToken != "" {
		req.Header.Set("Authorization", "Bearer "+w.serviceToken)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("profile sync request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("hub returned status %d: %s", resp.StatusCode, string(body))
	}

	var changes getProfileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&changes); err != nil {
		return fmt.Errorf("failed to decode profile changes: %w", err)
	}
	if len(changes.Profiles) == 0 {
		return nil
	}

	updated := 0
	for _, p := range changes.Profiles {
		res := w.db.Model(&models.Identity{}).
			Where("fid = ?", p.Fid).
			Updates(map[string]interface{}{
				"username":       p.Username,
				"power_badge":    p.PowerBadge,
				"follower_count": p.FollowerCount,
			})
		if res.Error != nil {
			log.Printf("[PROFILE_SYNC] Failed to update identity for fid %d: %v", p.Fid, res.Error)
			continue
		}
		updated += int(res.RowsAffected)
	}
	log.Printf("[PROFILE_SYNC] 📡 %d profile change(s) fetched, %d identit(ies) updated", len(changes.Profiles), updated)
	return nil
}
