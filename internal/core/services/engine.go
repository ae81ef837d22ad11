package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/revreach/revreach/internal/core/domain"
	"github.com/revreach/revreach/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// EngineConfig carries the non-collaborator knobs of the engine.
type EngineConfig struct {
	// Product is the name used in subjects, fallbacks and the footer.
	Product string
	// MaxTargets caps the discovered candidate list.
	MaxTargets int
	// FetchConcurrency bounds parallel context fetches within one stage.
	FetchConcurrency int
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.Product == "" {
		c.Product = "RevReach"
	}
	if c.MaxTargets <= 0 {
		c.MaxTargets = 5
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = 3
	}
	return c
}

// Engine drives campaigns through the fixed stage pipeline, suspending
// at checkpoint gates and resuming when a resolution arrives. There is
// no polling loop: creating a checkpoint returns immediately, and
// Resolve invokes the continuation for the checkpoint's kind
// synchronously. Automatic mode runs the exact same transition function,
// just triggered by the engine itself at creation time.
type Engine struct {
	logger      *slog.Logger
	cfg         EngineConfig
	campaigns   ports.CampaignRepository
	checkpoints *CheckpointStore
	risk        *RiskAssessor
	safety      *SafetyController
	bus         *EventBus

	discovery ports.Discoverer
	contexts  ports.ContextFetcher
	drafter   ports.Drafter
	sender    ports.MailSender

	// locks serializes all stage work per campaign so a resolution and
	// its continuation form one atomic step, and out-of-band overrides
	// cannot interleave with an in-flight transition.
	locksMu sync.Mutex
	locks   map[domain.CampaignID]*sync.Mutex
}

func NewEngine(
	logger *slog.Logger,
	cfg EngineConfig,
	campaigns ports.CampaignRepository,
	checkpoints *CheckpointStore,
	risk *RiskAssessor,
	safety *SafetyController,
	bus *EventBus,
	discovery ports.Discoverer,
	contexts ports.ContextFetcher,
	drafter ports.Drafter,
	sender ports.MailSender,
) *Engine {
	return &Engine{
		logger:      logger,
		cfg:         cfg.withDefaults(),
		campaigns:   campaigns,
		checkpoints: checkpoints,
		risk:        risk,
		safety:      safety,
		bus:         bus,
		discovery:   discovery,
		contexts:    contexts,
		drafter:     drafter,
		sender:      sender,
		locks:       make(map[domain.CampaignID]*sync.Mutex),
	}
}

func (e *Engine) lockFor(id domain.CampaignID) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	if _, ok := e.locks[id]; !ok {
		e.locks[id] = &sync.Mutex{}
	}
	return e.locks[id]
}

// StartCampaign admits, creates and plans a new campaign. The call runs
// the planning stage synchronously; for a Supervised campaign it returns
// with the plan checkpoint pending, for an all-Low Automatic campaign it
// may run the whole pipeline to completion before returning.
func (e *Engine) StartCampaign(ctx context.Context, sector, recipient string, mode domain.AutonomyMode) (*domain.Campaign, error) {
	if err := e.safety.CheckCampaignAdmission(); err != nil {
		return nil, err
	}
	if mode != domain.AutonomySupervised && mode != domain.AutonomyAutomatic {
		return nil, fmt.Errorf("invalid autonomy mode %q", mode)
	}

	now := time.Now()
	c := &domain.Campaign{
		ID:        domain.CampaignID(uuid.New().String()),
		Status:    domain.CampaignStatusPlanning,
		Stage:     domain.StageInitializing,
		Autonomy:  mode,
		Sector:    sector,
		Recipient: recipient,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.campaigns.SaveCampaign(ctx, c); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	e.safety.RecordCampaignStarted()
	e.logger.Info("campaign started", "campaign_id", c.ID, "sector", sector, "autonomy", string(mode))

	lock := e.lockFor(c.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.runPlanStage(ctx, c); err != nil {
		return c, err
	}
	return c, nil
}

// Resolve applies an external decision to a pending checkpoint and runs
// the continuation for its kind. The resolution and the advance to the
// next stage happen under the campaign's lock, as one logical step.
func (e *Engine) Resolve(ctx context.Context, id domain.CheckpointID, res domain.Resolution) error {
	cp, err := e.checkpoints.Get(ctx, id)
	if err != nil {
		return err
	}

	lock := e.lockFor(cp.CampaignID)
	lock.Lock()
	defer lock.Unlock()

	c, err := e.campaigns.GetCampaign(ctx, cp.CampaignID)
	if err != nil {
		return err
	}
	return e.resolveLocked(ctx, c, id, res)
}

// resolveLocked is the single transition function shared by external
// resolutions and Automatic-mode auto-approvals. Caller holds the
// campaign lock.
func (e *Engine) resolveLocked(ctx context.Context, c *domain.Campaign, id domain.CheckpointID, res domain.Resolution) error {
	if c.Terminal() {
		return fmt.Errorf("%w: %s is %s", domain.ErrCampaignTerminal, c.ID, c.Status)
	}
	if c.Status == domain.CampaignStatusPaused {
		return fmt.Errorf("%w: resume %s before resolving", domain.ErrCampaignPaused, c.ID)
	}

	cp, err := e.checkpoints.Resolve(ctx, id, res)
	if err != nil {
		return err
	}
	c.Artifacts.CheckpointsUsed++

	e.bus.Emit(c.ID, EventCheckpointResolved, map[string]any{
		"checkpoint_id": string(cp.ID),
		"kind":          string(cp.Kind),
		"decision":      string(res.Decision),
	})

	if !res.Decision.Valid() {
		// Contract violation: the resolution is stamped (the checkpoint
		// cannot be re-resolved) and the campaign fails loudly.
		reason := fmt.Sprintf("unknown checkpoint decision %q on %s", res.Decision, cp.Kind)
		e.failCampaign(ctx, c, reason)
		return fmt.Errorf("%w: %q", domain.ErrUnknownDecision, res.Decision)
	}

	return e.advance(ctx, c, cp)
}

// advance runs the continuation for a freshly resolved checkpoint.
func (e *Engine) advance(ctx context.Context, c *domain.Campaign, cp *domain.Checkpoint) error {
	if cp.Decision == domain.DecisionReject {
		// A rejected high-risk gate excludes the one target and keeps
		// the batch going; every other rejection ends the campaign.
		if cp.Kind == domain.CheckpointHighRiskTarget && cp.Payload.HighRisk != nil {
			e.excludeTarget(c, cp.Payload.HighRisk.Target)
			c.Status = domain.CampaignStatusExecuting
			return e.runContentStage(ctx, c)
		}
		e.failCampaign(ctx, c, fmt.Sprintf("checkpoint %s rejected", cp.Kind))
		return nil
	}

	switch cp.Kind {
	case domain.CheckpointPlanApproval:
		return e.continuePlan(ctx, c, cp)
	case domain.CheckpointHighRiskTarget:
		return e.continueHighRisk(ctx, c, cp)
	case domain.CheckpointEmailPreview:
		return e.continuePreview(ctx, c, cp)
	case domain.CheckpointBulkSendApproval:
		return e.continueSend(ctx, c, cp)
	case domain.CheckpointErrorIntervention:
		return e.continueIntervention(ctx, c, cp)
	default:
		e.failCampaign(ctx, c, fmt.Sprintf("checkpoint has unknown kind %q", cp.Kind))
		return fmt.Errorf("unknown checkpoint kind %q", cp.Kind)
	}
}

// --- stages ---

func (e *Engine) runPlanStage(ctx context.Context, c *domain.Campaign) error {
	e.setStage(ctx, c, domain.StagePlanning, 10)

	targets, err := e.discovery.Discover(ctx, c.Sector)
	if err != nil {
		e.logger.Error("discovery failed", "campaign_id", c.ID, "error", err)
		return e.intervene(ctx, c, domain.StagePlanning, err)
	}
	if len(targets) > e.cfg.MaxTargets {
		targets = targets[:e.cfg.MaxTargets]
	}

	level, assessment := e.risk.AssessBatch(targets, c.Sector)
	payload := domain.Payload{Plan: &domain.PlanPayload{
		Sector:          c.Sector,
		Targets:         targets,
		HighRisk:        assessment.HighRisk,
		MediumRisk:      assessment.MediumRisk,
		Recommendations: assessment.Recommendations,
	}}
	msg := fmt.Sprintf("Campaign plan ready: %d targets in %s (risk: %s). %s",
		len(targets), c.Sector, level, strings.Join(assessment.Recommendations, "; "))

	return e.openGate(ctx, c, domain.CheckpointPlanApproval, payload, msg, level)
}

func (e *Engine) continuePlan(ctx context.Context, c *domain.Campaign, cp *domain.Checkpoint) error {
	plan := cp.EffectivePayload().Plan
	if plan == nil {
		e.failCampaign(ctx, c, "plan approval resolved without a plan payload")
		return fmt.Errorf("plan payload missing on %s", cp.ID)
	}

	// Approval may prune the candidate list; the resolved payload is the
	// authoritative target set from here on.
	c.Artifacts.Targets = append([]string(nil), plan.Targets...)
	c.Status = domain.CampaignStatusExecuting
	e.setStage(ctx, c, domain.StageGatheringContext, 40)

	e.runGatherStage(ctx, c)

	e.setStage(ctx, c, domain.StageGeneratingEmails, 60)
	return e.runContentStage(ctx, c)
}

// runGatherStage fetches context for every target. Fetches within the
// stage run concurrently; the fetcher's contract is to fall back rather
// than fail, and a deterministic placeholder covers it if it errors
// anyway. The stage itself never suspends.
func (e *Engine) runGatherStage(ctx context.Context, c *domain.Campaign) {
	if c.Artifacts.Contexts == nil {
		c.Artifacts.Contexts = make(map[string]domain.TargetContext, len(c.Artifacts.Targets))
	}

	// Workers write into their own map; the campaign's map is only read
	// here and only merged after Wait, so the dispatch loop never races a
	// worker.
	var mu sync.Mutex
	fetched := make(map[string]domain.TargetContext)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.FetchConcurrency)

	for _, target := range c.Artifacts.Targets {
		if _, ok := c.Artifacts.Contexts[target]; ok {
			continue // already fetched on a previous pass
		}
		target := target
		g.Go(func() error {
			tc, err := e.contexts.FetchContext(gCtx, target)
			if err != nil {
				e.logger.Warn("context fetch failed, using placeholder", "target", target, "error", err)
				tc = e.placeholderContext(target)
			}
			mu.Lock()
			fetched[target] = tc
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	for target, tc := range fetched {
		c.Artifacts.Contexts[target] = tc
	}
	e.save(ctx, c)
}

// runContentStage drafts content target by target, pausing at a
// high-risk gate whenever a sensitive target (pre-draft) or a High-risk
// draft (post-draft) has not been cleared yet. It is re-entered by the
// gate continuations until every surviving target has a cleared draft,
// then opens the batch preview gate.
func (e *Engine) runContentStage(ctx context.Context, c *domain.Campaign) error {
	if c.Artifacts.Drafts == nil {
		c.Artifacts.Drafts = make(map[string]string)
	}

	for _, target := range append([]string(nil), c.Artifacts.Targets...) {
		if e.targetRisk(c, target) == domain.RiskHigh && !c.Artifacts.ClearedTargets[target] {
			payload := domain.Payload{HighRisk: &domain.HighRiskPayload{
				Target: target,
				Reason: "high-profile target requires manual approval before drafting",
			}}
			msg := fmt.Sprintf("High-risk target detected: %s. Manual approval required before proceeding.", target)
			e.save(ctx, c)
			return e.openGate(ctx, c, domain.CheckpointHighRiskTarget, payload, msg, domain.RiskHigh)
		}

		if _, ok := c.Artifacts.Drafts[target]; !ok {
			draft, err := e.drafter.Draft(ctx, target, c.Artifacts.Contexts[target])
			if err != nil {
				e.logger.Warn("draft failed, using placeholder", "target", target, "error", err)
				draft = e.placeholderDraft(target)
			}
			c.Artifacts.Drafts[target] = draft
			e.save(ctx, c)
		}

		level, factors := e.risk.AssessContent(c.Artifacts.Drafts[target], target)
		if level == domain.RiskHigh && !c.Artifacts.ClearedContent[target] {
			reasons := make([]string, 0, len(factors))
			for _, f := range factors {
				reasons = append(reasons, f.Description)
			}
			payload := domain.Payload{HighRisk: &domain.HighRiskPayload{
				Target: target,
				Reason: "drafted content scored high risk: " + strings.Join(reasons, "; "),
			}}
			msg := fmt.Sprintf("Draft for %s needs review before the batch preview.", target)
			return e.openGate(ctx, c, domain.CheckpointHighRiskTarget, payload, msg, domain.RiskHigh)
		}
	}

	return e.openPreviewGate(ctx, c)
}

func (e *Engine) continueHighRisk(ctx context.Context, c *domain.Campaign, cp *domain.Checkpoint) error {
	hr := cp.Payload.HighRisk
	if hr == nil {
		e.failCampaign(ctx, c, "high-risk gate resolved without a target payload")
		return fmt.Errorf("high-risk payload missing on %s", cp.ID)
	}

	target := hr.Target
	if cp.Decision == domain.DecisionModify {
		if mod := cp.EffectivePayload().HighRisk; mod != nil && mod.Target != "" && mod.Target != target {
			e.replaceTarget(c, target, mod.Target)
			target = mod.Target
			// The replacement has no context yet; the gather step only
			// fetches what is missing.
			e.runGatherStage(ctx, c)
		}
	}

	if c.Artifacts.ClearedTargets == nil {
		c.Artifacts.ClearedTargets = make(map[string]bool)
	}
	if c.Artifacts.ClearedContent == nil {
		c.Artifacts.ClearedContent = make(map[string]bool)
	}
	c.Artifacts.ClearedTargets[target] = true
	if _, drafted := c.Artifacts.Drafts[target]; drafted {
		c.Artifacts.ClearedContent[target] = true
	}

	c.Status = domain.CampaignStatusExecuting
	e.save(ctx, c)
	return e.runContentStage(ctx, c)
}

func (e *Engine) openPreviewGate(ctx context.Context, c *domain.Campaign) error {
	drafts := make(map[string]string, len(c.Artifacts.Targets))
	factors := make(map[string][]domain.RiskFactor)
	level := domain.RiskLow
	for _, target := range c.Artifacts.Targets {
		drafts[target] = c.Artifacts.Drafts[target]
		l, fs := e.risk.AssessContent(drafts[target], target)
		if c.Artifacts.ClearedContent[target] {
			// Already approved through its own gate; keep the factors
			// visible but do not re-escalate the batch.
			l = domain.RiskMedium
		}
		if len(fs) > 0 {
			factors[target] = fs
		}
		level = domain.MaxRisk(level, l)
	}

	payload := domain.Payload{Preview: &domain.PreviewPayload{Drafts: drafts, Factors: factors}}
	msg := fmt.Sprintf("%d drafts ready for review.", len(drafts))
	return e.openGate(ctx, c, domain.CheckpointEmailPreview, payload, msg, level)
}

func (e *Engine) continuePreview(ctx context.Context, c *domain.Campaign, cp *domain.Checkpoint) error {
	preview := cp.EffectivePayload().Preview
	if preview == nil {
		e.failCampaign(ctx, c, "email preview resolved without a preview payload")
		return fmt.Errorf("preview payload missing on %s", cp.ID)
	}

	// Per-item modify substitutions are folded in here: the resolved
	// payload's drafts become the final batch.
	c.Artifacts.Drafts = preview.Drafts
	c.Status = domain.CampaignStatusExecuting
	e.setStage(ctx, c, domain.StageSendApproval, 80)

	if err := e.safety.CheckSendVolume(len(preview.Drafts)); err != nil {
		// Denied before any checkpoint for the dispatch step exists.
		e.failCampaign(ctx, c, err.Error())
		return err
	}

	level, _ := e.risk.AssessBatch(targetsOf(preview.Drafts), c.Sector)
	payload := domain.Payload{Send: &domain.SendPayload{
		Recipient: c.Recipient,
		Drafts:    preview.Drafts,
	}}
	msg := fmt.Sprintf("Ready to send %d emails to %s. Proceed?", len(preview.Drafts), c.Recipient)
	return e.openGate(ctx, c, domain.CheckpointBulkSendApproval, payload, msg, level)
}

func (e *Engine) continueSend(ctx context.Context, c *domain.Campaign, cp *domain.Checkpoint) error {
	send := cp.EffectivePayload().Send
	if send == nil {
		e.failCampaign(ctx, c, "send approval resolved without a send payload")
		return fmt.Errorf("send payload missing on %s", cp.ID)
	}

	c.Status = domain.CampaignStatusExecuting
	e.setStage(ctx, c, domain.StageSendingEmails, 90)

	recipient := send.Recipient
	if recipient == "" {
		recipient = c.Recipient
	}

	sent := 0
	for _, target := range targetsOf(send.Drafts) {
		subject := fmt.Sprintf("Opportunities for %s with %s", target, e.cfg.Product)
		body := send.Drafts[target] + e.unsubscribeFooter()

		result := domain.SendResult{
			Target:    target,
			Recipient: recipient,
			Timestamp: time.Now(),
		}
		if err := e.sender.Send(ctx, recipient, subject, body); err != nil {
			result.Status = "failed: " + err.Error()
			c.Artifacts.FailedSends++
			e.logger.Warn("send failed", "campaign_id", c.ID, "target", target, "error", err)
		} else {
			result.Status = "sent"
			c.Artifacts.SuccessfulSends++
			sent++
		}
		c.Artifacts.Results = append(c.Artifacts.Results, result)
		e.bus.Emit(c.ID, EventEmailSent, map[string]any{"target": target, "status": result.Status})
	}
	if sent > 0 {
		e.safety.RecordEmailsSent(sent)
	}

	// Partial failure is still terminal success for the campaign; the
	// per-item results carry the failures.
	c.Artifacts.TotalEmails = len(send.Drafts)
	c.Status = domain.CampaignStatusCompleted
	now := time.Now()
	c.CompletedAt = &now
	e.setStage(ctx, c, domain.StageCompleted, 100)
	e.safety.RecordCampaignCompleted()

	e.bus.Emit(c.ID, EventCampaignCompleted, map[string]any{
		"total":  c.Artifacts.TotalEmails,
		"sent":   c.Artifacts.SuccessfulSends,
		"failed": c.Artifacts.FailedSends,
	})
	e.logger.Info("campaign completed", "campaign_id", c.ID, "sent", sent, "failed", c.Artifacts.FailedSends)
	return nil
}

func (e *Engine) continueIntervention(ctx context.Context, c *domain.Campaign, cp *domain.Checkpoint) error {
	iv := cp.Payload.Intervention
	if iv == nil {
		e.failCampaign(ctx, c, "intervention resolved without a payload")
		return fmt.Errorf("intervention payload missing on %s", cp.ID)
	}

	// Approve (or modify) means "try the stage again".
	c.Status = domain.CampaignStatusExecuting
	e.save(ctx, c)
	switch iv.Stage {
	case domain.StagePlanning:
		return e.runPlanStage(ctx, c)
	case domain.StageGatheringContext:
		// Gathering only fetches what is missing, so re-running it after
		// a crash is safe.
		e.setStage(ctx, c, domain.StageGatheringContext, 40)
		e.runGatherStage(ctx, c)
		e.setStage(ctx, c, domain.StageGeneratingEmails, 60)
		return e.runContentStage(ctx, c)
	case domain.StageGeneratingEmails:
		return e.runContentStage(ctx, c)
	case domain.StageSendingEmails:
		// Dispatch may have partially run before the failure. A fresh
		// send approval, always held for a human, gates the retry
		// instead of resending blind.
		e.setStage(ctx, c, domain.StageSendApproval, 80)
		payload := domain.Payload{Send: &domain.SendPayload{
			Recipient: c.Recipient,
			Drafts:    c.Artifacts.Drafts,
		}}
		msg := fmt.Sprintf("Dispatch was interrupted; re-approve to send %d emails to %s.", len(c.Artifacts.Drafts), c.Recipient)
		return e.openGate(ctx, c, domain.CheckpointBulkSendApproval, payload, msg, domain.RiskHigh)
	default:
		e.failCampaign(ctx, c, fmt.Sprintf("cannot retry stage %q after intervention", iv.Stage))
		return fmt.Errorf("no retry path for stage %q", iv.Stage)
	}
}

// --- gates and overrides ---

// openGate persists a checkpoint and either suspends the campaign or,
// when approval is not required, immediately feeds an approve resolution
// through the same transition function an external caller would use.
func (e *Engine) openGate(ctx context.Context, c *domain.Campaign, kind domain.CheckpointKind, payload domain.Payload, message string, risk domain.RiskLevel) error {
	cp, err := e.checkpoints.Create(ctx, c, kind, payload, message, risk)
	if err != nil {
		return err
	}

	e.bus.Emit(c.ID, EventCheckpointCreated, map[string]any{
		"checkpoint_id": string(cp.ID),
		"kind":          string(kind),
		"risk":          string(risk),
	})

	if !cp.RequiresApproval {
		return e.resolveLocked(ctx, c, cp.ID, domain.Resolution{
			Decision: domain.DecisionApprove,
			Feedback: "auto-approved: low risk, automatic mode",
		})
	}

	c.Status = domain.CampaignStatusWaitingApproval
	e.save(ctx, c)
	return nil
}

// intervene opens an error_intervention checkpoint and parks the
// campaign for human triage. Intervention gates are always High risk so
// Automatic mode never bypasses them.
func (e *Engine) intervene(ctx context.Context, c *domain.Campaign, stage domain.Stage, cause error) error {
	payload := domain.Payload{Intervention: &domain.InterventionPayload{
		Stage: stage,
		Error: cause.Error(),
	}}
	msg := fmt.Sprintf("Stage %s failed: %s. How should I proceed?", stage, cause)

	cp, err := e.checkpoints.Create(ctx, c, domain.CheckpointErrorIntervention, payload, msg, domain.RiskHigh)
	if err != nil {
		e.failCampaign(ctx, c, fmt.Sprintf("stage %s failed and intervention could not be opened: %v", stage, cause))
		return err
	}

	c.Status = domain.CampaignStatusIntervention
	e.save(ctx, c)
	e.bus.Emit(c.ID, EventCheckpointCreated, map[string]any{
		"checkpoint_id": string(cp.ID),
		"kind":          string(domain.CheckpointErrorIntervention),
		"stage":         string(stage),
	})
	return nil
}

// Pause is an out-of-band operator override. It takes the campaign lock,
// so a resolution in flight finishes its continuation first.
func (e *Engine) Pause(ctx context.Context, id domain.CampaignID) error {
	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	c, err := e.campaigns.GetCampaign(ctx, id)
	if err != nil {
		return err
	}
	if c.Terminal() {
		return fmt.Errorf("%w: %s", domain.ErrCampaignTerminal, c.Status)
	}
	c.Status = domain.CampaignStatusPaused
	e.save(ctx, c)
	return nil
}

// Unpause restores the status implied by the campaign's pending
// checkpoint, if any.
func (e *Engine) Unpause(ctx context.Context, id domain.CampaignID) error {
	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	c, err := e.campaigns.GetCampaign(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != domain.CampaignStatusPaused {
		return fmt.Errorf("campaign %s is not paused (status: %s)", id, c.Status)
	}

	pending, err := e.checkpoints.PendingFor(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case len(pending) > 0 && pending[0].Kind == domain.CheckpointErrorIntervention:
		c.Status = domain.CampaignStatusIntervention
	case len(pending) > 0:
		c.Status = domain.CampaignStatusWaitingApproval
	default:
		c.Status = domain.CampaignStatusExecuting
	}
	e.save(ctx, c)
	return nil
}

// RecoverInterrupted scans for campaigns that were mid-stage when the
// process died and parks each one at an intervention gate. Campaigns
// already suspended at a checkpoint survive a restart as-is, since
// every gate is persisted before it is announced.
func (e *Engine) RecoverInterrupted(ctx context.Context) error {
	statuses := []domain.CampaignStatus{
		domain.CampaignStatusPlanning,
		domain.CampaignStatusExecuting,
	}
	for _, status := range statuses {
		list, err := e.campaigns.ListCampaignsByStatus(ctx, status)
		if err != nil {
			return fmt.Errorf("list %s campaigns: %w", status, err)
		}
		for i := range list {
			c := &list[i]
			pending, err := e.checkpoints.PendingFor(ctx, c.ID)
			if err != nil {
				return err
			}
			if len(pending) > 0 {
				continue
			}
			lock := e.lockFor(c.ID)
			lock.Lock()
			err = e.intervene(ctx, c, c.Stage, fmt.Errorf("process restarted while stage was running"))
			lock.Unlock()
			if err != nil {
				return err
			}
			e.logger.Info("interrupted campaign recovered to intervention",
				"campaign_id", c.ID, "stage", string(c.Stage))
		}
	}
	return nil
}

// Stop terminates a campaign outside the checkpoint protocol.
func (e *Engine) Stop(ctx context.Context, id domain.CampaignID, reason string) error {
	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	c, err := e.campaigns.GetCampaign(ctx, id)
	if err != nil {
		return err
	}
	if c.Terminal() {
		return fmt.Errorf("%w: %s", domain.ErrCampaignTerminal, c.Status)
	}
	if reason == "" {
		reason = "stopped by operator"
	}
	e.failCampaign(ctx, c, reason)
	return nil
}

// --- helpers ---

func (e *Engine) targetRisk(c *domain.Campaign, target string) domain.RiskLevel {
	return e.risk.AssessTarget(target, c.Sector)
}

func (e *Engine) excludeTarget(c *domain.Campaign, target string) {
	kept := c.Artifacts.Targets[:0]
	for _, t := range c.Artifacts.Targets {
		if t != target {
			kept = append(kept, t)
		}
	}
	c.Artifacts.Targets = kept
	delete(c.Artifacts.Contexts, target)
	delete(c.Artifacts.Drafts, target)
	e.logger.Info("target excluded after rejected gate", "campaign_id", c.ID, "target", target)
}

func (e *Engine) replaceTarget(c *domain.Campaign, old, new string) {
	for i, t := range c.Artifacts.Targets {
		if t == old {
			c.Artifacts.Targets[i] = new
		}
	}
	delete(c.Artifacts.Contexts, old)
	delete(c.Artifacts.Drafts, old)
}

func (e *Engine) setStage(ctx context.Context, c *domain.Campaign, stage domain.Stage, progress int) {
	c.Stage = stage
	c.Progress = progress
	e.save(ctx, c)
	e.bus.Emit(c.ID, EventStageChanged, map[string]any{
		"stage":    string(stage),
		"progress": progress,
	})
}

func (e *Engine) failCampaign(ctx context.Context, c *domain.Campaign, reason string) {
	c.Status = domain.CampaignStatusFailed
	c.Error = &reason
	now := time.Now()
	c.CompletedAt = &now
	e.save(ctx, c)
	e.safety.RecordCampaignCompleted()
	e.bus.Emit(c.ID, EventCampaignFailed, map[string]any{"error": reason})
	e.logger.Warn("campaign failed", "campaign_id", c.ID, "reason", reason)
}

func (e *Engine) save(ctx context.Context, c *domain.Campaign) {
	c.UpdatedAt = time.Now()
	if err := e.campaigns.SaveCampaign(ctx, c); err != nil {
		e.logger.Error("failed to persist campaign", "campaign_id", c.ID, "error", err)
	}
}

func (e *Engine) placeholderContext(target string) domain.TargetContext {
	return domain.TargetContext{
		Target:   target,
		External: fmt.Sprintf("Recent market developments for %s could not be retrieved.", target),
		Product:  fmt.Sprintf("%s connects customer feedback directly to engineering teams.", e.cfg.Product),
	}
}

func (e *Engine) placeholderDraft(target string) string {
	return fmt.Sprintf(
		"Hello %s team,\n\nWe at %s believe there is a strong fit between your goals and our platform. "+
			"We would love to set up a short call to walk through how teams like yours use %s to close the loop "+
			"between customers and engineering.\n\nBest regards,\nThe %s Team",
		target, e.cfg.Product, e.cfg.Product, e.cfg.Product)
}

func (e *Engine) unsubscribeFooter() string {
	return fmt.Sprintf("\n\n---\nThis email was sent by %s.\nIf you no longer wish to receive emails from us, reply with \"UNSUBSCRIBE\".", e.cfg.Product)
}

// targetsOf returns map keys in stable order so dispatch and tests are
// deterministic.
func targetsOf(drafts map[string]string) []string {
	out := make([]string, 0, len(drafts))
	for t := range drafts {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
