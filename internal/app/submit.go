package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/atanenl/portabase-go/internal/domain"
	"github.com/atanenl/portabase-go/pkg/portabase"
	"github.com/atanenl/portabase-go/pkg/publishers"
)

// ErrDuplicateSubmission is returned when the journal already holds an
// unexpired receipt for the same submission.
var ErrDuplicateSubmission = errors.New("qualification already submitted")

// SubmitRequest is the CLI-level input of a qualification submission.
type SubmitRequest struct {
	HostID                 string
	Type                   string
	Date                   string
	ExpireDate             string
	AttachmentPath         string
	Comments               *string
	LRKPNumber             *string
	ActionPlanApprovalDate *string
	ActionPlanPath         string
	ActionPlanExecuted     bool
	Force                  bool
}

// Submission converts the request into the library value object. Errors are
// reported in Validate's order: type, lrkp, host id, attachments.
func (r SubmitRequest) Submission() (portabase.QualificationSubmission, error) {
	typ, err := portabase.ParseQualificationType(r.Type)
	if err != nil {
		return portabase.QualificationSubmission{}, err
	}
	hostID, hostErr := portabase.ParseHostID(r.HostID)

	sub := portabase.QualificationSubmission{
		HostID:                 hostID,
		Date:                   r.Date,
		ExpireDate:             r.ExpireDate,
		Type:                   typ,
		Attachment:             portabase.NewAttachment(r.AttachmentPath),
		Comments:               r.Comments,
		LRKPNumber:             r.LRKPNumber,
		ActionPlanApprovalDate: r.ActionPlanApprovalDate,
		ActionPlanExecuted:     r.ActionPlanExecuted,
	}
	if r.ActionPlanPath != "" {
		plan := portabase.NewAttachment(r.ActionPlanPath)
		sub.ActionPlan = &plan
	}
	if hostErr != nil && (typ != portabase.QualificationRIE || r.LRKPNumber != nil) {
		return sub, hostErr
	}
	return sub, sub.Validate()
}

// Submit uploads a qualification, journals the receipt and notifies publishers.
// Publisher failures are logged but do not fail the submission.
func (a *App) Submit(ctx context.Context, req SubmitRequest) error {
	sub, err := req.Submission()
	if err != nil {
		return err
	}
	if err := a.openSubmissionDeps(ctx); err != nil {
		return err
	}

	fp, err := Fingerprint(sub)
	if err != nil {
		return err
	}

	if !req.Force {
		prev, seen, err := a.journal.Get(fp)
		if err != nil {
			return fmt.Errorf("journal lookup: %w", err)
		}
		if seen {
			a.log.WarnObj("duplicate submission refused", "submission", map[string]any{
				"fingerprint":  fp,
				"host_id":      sub.HostID,
				"submitted_at": prev.SubmittedAt,
			})
			return fmt.Errorf("%w for host %d at %s (use --force to resend)",
				ErrDuplicateSubmission, sub.HostID, prev.SubmittedAt.Format("2006-01-02 15:04:05"))
		}
	}

	var confirmation portabase.Confirmation
	err = a.call("submit_qualification", func() (err error) {
		confirmation, err = a.api.SubmitQualification(ctx, sub)
		return err
	})
	if err != nil {
		return err
	}

	receipt := domain.Receipt{
		Fingerprint:       fp,
		HostID:            sub.HostID,
		QualificationType: string(sub.Type),
		Date:              sub.Date,
		ExpireDate:        sub.ExpireDate,
		AttachmentName:    sub.Attachment.FileName,
		SubmittedAt:       a.now().UTC(),
		Confirmation:      confirmation,
	}
	if err := a.journal.Record(receipt); err != nil {
		a.log.ErrorObj("journal record failed", "error", err.Error())
	}

	a.notify(ctx, receipt)
	return a.renderer.Record(confirmation)
}

func (a *App) notify(ctx context.Context, receipt domain.Receipt) {
	if a.fanout.Size() == 0 {
		return
	}
	evt := publishers.NewEvent(receipt)
	delivered, err := a.fanout.Publish(ctx, evt)
	meta := map[string]any{
		"event_id":  evt.ID,
		"delivered": delivered,
		"total":     a.fanout.Size(),
	}
	if err != nil {
		meta["error"] = err.Error()
		a.log.ErrorObj("submission event publish failed", "publish", meta)
		return
	}
	a.log.InfoObj("submission event published", "publish", meta)
}

// Fingerprint identifies a submission by its fields and attachment contents.
func Fingerprint(sub portabase.QualificationSubmission) (string, error) {
	h := sha256.New()
	writeField := func(name, value string) {
		fmt.Fprintf(h, "%s=%s\n", name, value)
	}

	writeField("host", strconv.Itoa(sub.HostID))
	writeField("type", string(sub.Type))
	writeField("date", sub.Date)
	writeField("expire", sub.ExpireDate)
	writeOptional := func(name string, value *string) {
		if value != nil {
			writeField(name, *value)
		}
	}
	writeOptional("lrkp", sub.LRKPNumber)
	writeOptional("action_plan_date", sub.ActionPlanApprovalDate)
	writeOptional("comments", sub.Comments)
	writeField("action_plan_executed", strconv.FormatBool(sub.ActionPlanExecuted))
	if err := hashFile(h, sub.Attachment.Path); err != nil {
		return "", err
	}
	if sub.ActionPlan != nil {
		if err := hashFile(h, sub.ActionPlan.Path); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read attachment: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("read attachment %s: %w", path, err)
	}
	return nil
}
