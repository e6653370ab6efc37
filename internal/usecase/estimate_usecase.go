package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"construction_estimator/internal/domain/entities"
	"construction_estimator/internal/domain/extractor"
	"construction_estimator/internal/domain/pricing"
	"construction_estimator/internal/domain/rates"
	"construction_estimator/internal/logger"
	"construction_estimator/internal/usecase/interfaces"

	"golang.org/x/sync/errgroup"
)

var (
	ErrEstimateNotFound        = errors.New("estimate not found")
	ErrInvalidEstimateID       = errors.New("invalid estimate id")
	ErrNoDocuments             = errors.New("no documents provided")
	ErrEmptyRevisionInput      = errors.New("empty revision input")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrStorageFailure          = errors.New("storage failure")
)

const (
	DefaultFallbackAmount      = 50000.0
	DefaultCollaboratorTimeout = 60 * time.Second
	DefaultListLimit           = 20
	MaxListLimit               = 100

	maxConcurrentExtractions = 4
)

var placeholderQuestions = []string{
	"Provide total heated sqft",
	"Provide finish level for kitchen and baths",
}

// IEstimateUseCase exposes the estimate lifecycle:
//   - StartFromDocuments: plans -> AI draft (or fallback) -> persisted snapshot
//   - StartFromRooms: room list -> rate table pricing -> final snapshot
//   - Revise: client answers -> AI revision (or no-op) -> replaced snapshot
type IEstimateUseCase interface {
	StartFromDocuments(ctx context.Context, projectName string, docs []entities.Document) (entities.Estimate, error)
	StartFromRooms(ctx context.Context, projectName string, rooms []entities.RoomSpec) (entities.Estimate, error)
	Revise(ctx context.Context, id int64, input string) (entities.Estimate, error)
	GetStatus(ctx context.Context, id int64) (entities.StatusView, error)
	GetByID(ctx context.Context, id int64) (entities.Estimate, error)
	ListRecent(ctx context.Context, limit int) ([]entities.Estimate, error)
	ListChanges(ctx context.Context, id int64) ([]entities.EstimateChange, error)
}

// EstimateOptions tunes the lifecycle engine. Zero values fall back to defaults.
type EstimateOptions struct {
	Currency            string
	FallbackAmount      float64
	CollaboratorTimeout time.Duration
	DefaultListLimit    int
}

type EstimateUseCase struct {
	repo      interfaces.IEstimateRepository
	documents interfaces.IDocumentExtractor
	drafter   interfaces.IDraftGenerator
	rates     *rates.Table
	opts      EstimateOptions
	now       func() time.Time
}

var _ IEstimateUseCase = (*EstimateUseCase)(nil)

// NewEstimateUseCase wires the engine. A nil drafter means the AI collaborator is
// unavailable and every call takes the fallback path.
func NewEstimateUseCase(
	repo interfaces.IEstimateRepository,
	documents interfaces.IDocumentExtractor,
	drafter interfaces.IDraftGenerator,
	table *rates.Table,
	opts EstimateOptions,
) *EstimateUseCase {
	if table == nil {
		table = rates.Default()
	}
	opts.Currency = strings.ToUpper(strings.TrimSpace(opts.Currency))
	if opts.Currency == "" {
		opts.Currency = entities.DefaultCurrency
	}
	if opts.FallbackAmount <= 0 {
		opts.FallbackAmount = DefaultFallbackAmount
	}
	if opts.CollaboratorTimeout <= 0 {
		opts.CollaboratorTimeout = DefaultCollaboratorTimeout
	}
	if opts.DefaultListLimit <= 0 {
		opts.DefaultListLimit = DefaultListLimit
	}
	return &EstimateUseCase{
		repo:      repo,
		documents: documents,
		drafter:   drafter,
		rates:     table,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// StartFromDocuments extracts every document and asks the draft generator for an
// estimate. When the generator is missing, fails, times out or returns a malformed
// draft, the fallback first prices rooms detected in the extracted text with the
// rate table (status final). Only when no room is detected does it store the single
// "General Scope" placeholder with clarification questions. Collaborator problems
// never surface as errors; storage failures do.
func (u *EstimateUseCase) StartFromDocuments(ctx context.Context, projectName string, docs []entities.Document) (entities.Estimate, error) {
	if len(docs) == 0 {
		return entities.Estimate{}, ErrNoDocuments
	}
	logger.Log.Infof("[estimate][usecase] start-from-documents files=%d", len(docs))

	extracted, err := u.extractAll(ctx, docs)
	if err != nil {
		return entities.Estimate{}, err
	}

	e := u.newSnapshot(projectName, entities.EstimateSourceDocuments)
	if draft, ok := u.generateDraft(ctx, extracted); ok {
		err := u.applyDraft(&e, draft)
		if err == nil {
			return u.create(ctx, e)
		}
		logger.Log.Warnf("[estimate][usecase] malformed draft, using fallback err=%v", err)
	}

	u.applyFallback(&e, extracted)
	return u.create(ctx, e)
}

func (u *EstimateUseCase) StartFromRooms(ctx context.Context, projectName string, rooms []entities.RoomSpec) (entities.Estimate, error) {
	logger.Log.Infof("[estimate][usecase] start-from-rooms rooms=%d", len(rooms))
	e, err := u.PriceRooms(projectName, rooms)
	if err != nil {
		logger.Log.Infof("[estimate][usecase] invalid rooms err=%v", err)
		return entities.Estimate{}, err
	}
	return u.create(ctx, e)
}

// PriceRooms builds the final, unsaved estimate for a room list. It never touches
// the store, so it also serves offline pricing.
func (u *EstimateUseCase) PriceRooms(projectName string, rooms []entities.RoomSpec) (entities.Estimate, error) {
	items, subtotal, err := pricing.Compute(u.rates, rooms)
	if err != nil {
		return entities.Estimate{}, err
	}

	e := u.newSnapshot(projectName, entities.EstimateSourceRooms)
	e.Items = items
	e.Subtotal = subtotal
	e.Assumptions = []entities.Assumption{}
	e.Questions = []string{}
	e.Status = entities.EstimateStatusFinal
	return e, nil
}

// Revise applies client answers through the revision collaborator. When the
// collaborator is unavailable or misbehaves the current snapshot is returned as-is.
func (u *EstimateUseCase) Revise(ctx context.Context, id int64, input string) (entities.Estimate, error) {
	if id <= 0 {
		return entities.Estimate{}, ErrInvalidEstimateID
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return entities.Estimate{}, ErrEmptyRevisionInput
	}

	current, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.Estimate{}, err
	}
	if u.drafter == nil {
		logger.Log.Warnf("[estimate][usecase] revise no-op, draft generator not configured id=%d", id)
		return current, nil
	}

	cctx, cancel := context.WithTimeout(ctx, u.opts.CollaboratorTimeout)
	defer cancel()
	draft, err := u.drafter.ReviseDraft(cctx, current, input)
	if err != nil {
		logger.Log.Warnf("[estimate][usecase] revise no-op, collaborator failed id=%d err=%v", id, err)
		return current, nil
	}

	next := current
	if err := u.applyDraft(&next, draft); err != nil {
		logger.Log.Warnf("[estimate][usecase] revise no-op, malformed revision id=%d err=%v", id, err)
		return current, nil
	}
	if !current.Status.CanTransitionTo(next.Status) {
		return entities.Estimate{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, next.Status)
	}
	next.UpdatedAt = u.now()

	updated, err := u.repo.Replace(ctx, id, next, input)
	if err != nil {
		logger.Log.Errorf("[estimate][usecase] replace failed id=%d err=%v", id, err)
		return entities.Estimate{}, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	if updated.ID == 0 {
		return entities.Estimate{}, ErrEstimateNotFound
	}
	logger.Log.Infof("[estimate][usecase] revised id=%d status=%s subtotal=%.2f items=%d", id, updated.Status, updated.Subtotal, len(updated.Items))
	return updated, nil
}

func (u *EstimateUseCase) GetStatus(ctx context.Context, id int64) (entities.StatusView, error) {
	e, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.StatusView{}, err
	}
	return e.StatusView(), nil
}

func (u *EstimateUseCase) GetByID(ctx context.Context, id int64) (entities.Estimate, error) {
	if id <= 0 {
		return entities.Estimate{}, ErrInvalidEstimateID
	}

	e, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Estimate{}, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	if e.ID == 0 {
		return entities.Estimate{}, ErrEstimateNotFound
	}
	return e, nil
}

func (u *EstimateUseCase) ListRecent(ctx context.Context, limit int) ([]entities.Estimate, error) {
	if limit <= 0 {
		limit = u.opts.DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	out, err := u.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	return out, nil
}

func (u *EstimateUseCase) ListChanges(ctx context.Context, id int64) ([]entities.EstimateChange, error) {
	if _, err := u.GetByID(ctx, id); err != nil {
		return nil, err
	}
	out, err := u.repo.ListChanges(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	return out, nil
}

func (u *EstimateUseCase) newSnapshot(projectName string, source entities.EstimateSource) entities.Estimate {
	now := u.now()
	return entities.Estimate{
		ProjectName: strings.TrimSpace(projectName),
		Source:      source,
		Status:      entities.EstimateStatusDraft,
		Currency:    u.opts.Currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (u *EstimateUseCase) create(ctx context.Context, e entities.Estimate) (entities.Estimate, error) {
	created, err := u.repo.Create(ctx, e)
	if err != nil {
		logger.Log.Errorf("[estimate][usecase] create failed source=%s err=%v", e.Source, err)
		return entities.Estimate{}, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	logger.Log.Infof("[estimate][usecase] created id=%d source=%s status=%s subtotal=%.2f items=%d", created.ID, created.Source, created.Status, created.Subtotal, len(created.Items))
	return created, nil
}

func (u *EstimateUseCase) extractAll(ctx context.Context, docs []entities.Document) ([]entities.ExtractedDocument, error) {
	out := make([]entities.ExtractedDocument, len(docs))
	if u.documents == nil {
		for i, d := range docs {
			out[i] = entities.ExtractedDocument{Name: d.Name, Text: string(d.Data)}
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentExtractions)
	for i, d := range docs {
		g.Go(func() error {
			out[i] = u.documents.Extract(gctx, d.Name, d.Data)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (u *EstimateUseCase) generateDraft(ctx context.Context, docs []entities.ExtractedDocument) (entities.Draft, bool) {
	if u.drafter == nil {
		logger.Log.Warnf("[estimate][usecase] draft generator not configured, using fallback")
		return entities.Draft{}, false
	}
	cctx, cancel := context.WithTimeout(ctx, u.opts.CollaboratorTimeout)
	defer cancel()
	draft, err := u.drafter.GenerateDraft(cctx, docs)
	if err != nil {
		logger.Log.Warnf("[estimate][usecase] draft generator failed, using fallback err=%v", err)
		return entities.Draft{}, false
	}
	return draft, true
}

// applyDraft installs a collaborator draft on e, re-deriving every total.
func (u *EstimateUseCase) applyDraft(e *entities.Estimate, draft entities.Draft) error {
	items, subtotal, err := pricing.NormalizeDraft(draft)
	if err != nil {
		return err
	}
	if draft.Subtotal != nil && pricing.Round2(*draft.Subtotal) != subtotal {
		logger.Log.Debugf("[estimate][usecase] collaborator subtotal %.2f replaced by derived %.2f", *draft.Subtotal, subtotal)
	}

	e.Items = items
	e.Subtotal = subtotal
	e.Assumptions = normalizeAssumptions(draft.Assumptions)
	e.Questions = normalizeQuestions(draft.Questions)
	if c := strings.ToUpper(strings.TrimSpace(draft.Currency)); c != "" {
		e.Currency = c
	}
	if e.Currency == "" {
		e.Currency = u.opts.Currency
	}
	e.Status = entities.ClassifyStatus(e.Questions)
	return nil
}

// applyFallback prices rooms found in the plan text; with none it installs a
// single conservative placeholder and asks for the missing basics.
func (u *EstimateUseCase) applyFallback(e *entities.Estimate, docs []entities.ExtractedDocument) {
	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		if strings.TrimSpace(d.Text) != "" {
			texts = append(texts, d.Text)
		}
	}
	candidates := extractor.Collect(extractor.ExtractText(strings.Join(texts, "\n")))

	if len(candidates) > 0 {
		items, subtotal, err := pricing.Compute(u.rates, extractor.ToRooms(candidates))
		if err == nil {
			logger.Log.Infof("[estimate][usecase] fallback priced rooms from plan text rooms=%d", len(items))
			e.Items = items
			e.Subtotal = subtotal
			e.Assumptions = []entities.Assumption{{
				Topic:      "Global",
				Statement:  "AI draft unavailable; rooms, areas and finishes read from plan text only",
				Confidence: 0.5,
			}}
			e.Questions = []string{}
			e.Status = entities.ClassifyStatus(e.Questions)
			return
		}
	}

	logger.Log.Infof("[estimate][usecase] no rooms detected, using placeholder amount=%.2f", u.opts.FallbackAmount)
	amount := pricing.Round2(u.opts.FallbackAmount)
	e.Items = []entities.Item{{
		Name:      "General Scope",
		Scope:     "Rough estimate",
		Quantity:  1,
		Unit:      "ls",
		UnitCost:  amount,
		TotalCost: amount,
		Notes:     "AI draft unavailable; placeholder.",
	}}
	e.Subtotal = pricing.Subtotal(e.Items)
	e.Assumptions = []entities.Assumption{{
		Topic:      "Global",
		Statement:  "No finishes or quantities in plans",
		Confidence: 0.3,
	}}
	e.Questions = append([]string(nil), placeholderQuestions...)
	e.Status = entities.ClassifyStatus(e.Questions)
}

func normalizeQuestions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, q := range in {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == entities.MaxQuestions {
			break
		}
	}
	return out
}

func normalizeAssumptions(in []entities.Assumption) []entities.Assumption {
	out := make([]entities.Assumption, 0, len(in))
	for _, a := range in {
		a.Topic = strings.TrimSpace(a.Topic)
		a.Statement = strings.TrimSpace(a.Statement)
		if a.Statement == "" {
			continue
		}
		switch {
		case a.Confidence < 0:
			a.Confidence = 0
		case a.Confidence > 1:
			a.Confidence = 1
		}
		out = append(out, a)
	}
	return out
}
