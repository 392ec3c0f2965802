// workers/audit_export_worker.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"confession-system/models"
	"confession-system/utils"

	"gorm.io/gorm"
)

const auditExportBatchSize = 500

// AuditExportWorker archives eligibility-decision audit rows to R2 as
// JSONL, hourly. Rows are marked exported only after the upload
// succeeds, so a failed upload just means the batch is retried next tick.
type AuditExportWorker struct {
	db       *gorm.DB
	interval time.Duration
}

func NewAuditExportWorker(db *gorm.DB) *AuditExportWorker {
	return &AuditExportWorker{db: db, interval: 1 * time.Hour}
}

func (w *AuditExportWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Audit Export Worker (eligibility_decisions → R2)…")
	go w.run(ctx)
}

func (w *AuditExportWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.exportBatches(ctx); err != nil {
				log.Printf("❌ Audit export failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Audit Export Worker stopped")
			return
		}
	}
}

// exportBatches drains unexported rows in fixed-size batches.
func (w *AuditExportWorker) exportBatches(ctx context.Context) error {
	for {
		var decisions []models.EligibilityDecision
		err := w.db.Where("exported = ?", false).
			Order("created_at ASC").
			Limit(auditExportBatchSize).
			Find(&decisions).Error
		if err != nil {
			return err
		}
		if len(decisions) == 0 {
			return nil
		}

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, d := range decisions {
			if err := enc.Encode(d); err != nil {
				return fmt.Errorf("failed to encode decision %s: %w", d.ID, err)
			}
		}

		now := time.Now().UTC()
		key := fmt.Sprintf("audit/%s/decisions-%s.jsonl", now.Format("2006/01/02"), now.Format("150405"))
		if err := utils.UploadBytesToR2(ctx, key, "application/x-ndjson", buf.Bytes()); err != nil {
			return err
		}

		ids := make([]string, 0, len(decisions))
		for _, d := range decisions {
			ids = append(ids, d.ID)
		}
		if err := w.db.Model(&models.EligibilityDecision{}).
			Where("id IN ?", ids).
			Update("exported", true).Error; err != nil {
			return fmt.Errorf("uploaded %s but failed to mark rows exported: %w", key, err)
		}
		log.Printf("[AUDIT_EXPORT] ✅ Archived %d decision(s) to %s", len(decisions), key)

		if len(decisions) < auditExportBatchSize {
			return nil
		}
	}
}
