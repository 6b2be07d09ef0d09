package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"workshop/api/internal/export"
	"workshop/api/internal/history"
	"workshop/api/internal/metrics"
	"workshop/api/internal/search"
	"workshop/api/internal/store"
	"workshop/api/internal/util"
	"workshop/api/internal/workshop"
)

const defaultGroupingTimeout = 20 * time.Second

type historyRecorder interface {
	Record(session *workshop.Session, author, message string) (history.Entry, error)
	History(sessionID string, limit int) ([]history.Entry, error)
	Snapshot(sessionID, hash string) (*workshop.Session, error)
}

type itemIndex interface {
	Search(ctx context.Context, q search.Query) search.Response
	IndexSession(session *workshop.Session)
	DeleteItem(id string)
}

type artifactUploader interface {
	Upload(ctx context.Context, sessionID string, result *export.Result) (export.Artifact, error)
}

type pdfRenderer func(ctx context.Context, html, title string) (*export.Result, error)

// Options wires the Service. Only Repository is required.
type Options struct {
	Repository      store.Repository
	Grouper         workshop.Grouper
	Analyzer        workshop.Analyzer
	Catalog         *workshop.Catalog
	Fallback        bool
	GroupingTimeout time.Duration
	History         *history.Service
	Search          *search.Service
	Artifacts       *export.ArtifactStore
	Logger          logrus.FieldLogger
}

type Service struct {
	repo            store.Repository
	grouper         workshop.Grouper
	analyzer        workshop.Analyzer
	catalog         *workshop.Catalog
	fallback        bool
	groupingTimeout time.Duration
	history         historyRecorder
	search          itemIndex
	artifacts       artifactUploader
	renderPDF       pdfRenderer
	log             logrus.FieldLogger

	locks  util.KeyedMutex
	flight singleflight.Group
}

func New(opts Options) *Service {
	svc := &Service{
		repo:            opts.Repository,
		grouper:         opts.Grouper,
		analyzer:        opts.Analyzer,
		catalog:         opts.Catalog,
		fallback:        opts.Fallback,
		groupingTimeout: opts.GroupingTimeout,
		renderPDF:       export.RenderDeckPDF,
		log:             opts.Logger,
	}
	if svc.catalog == nil {
		svc.catalog = workshop.DefaultCatalog()
	}
	if svc.groupingTimeout <= 0 {
		svc.groupingTimeout = defaultGroupingTimeout
	}
	if svc.log == nil {
		svc.log = logrus.StandardLogger()
	}
	// Typed nils must stay nil interfaces.
	if opts.History != nil {
		svc.history = opts.History
	}
	if opts.Search != nil {
		svc.search = opts.Search
	}
	if opts.Artifacts != nil {
		svc.artifacts = opts.Artifacts
	}
	return svc
}

type AddItemInput struct {
	Text      string `json:"text"`
	ModuleID  string `json:"moduleId"`
	CreatedBy string `json:"createdBy"`
}

type EditItemInput struct {
	Text     string `json:"text"`
	ModuleID string `json:"moduleId"`
}

type VoteInput struct {
	FeatureID     string `json:"featureId"`
	Value         int    `json:"value"`
	Complexity    int    `json:"complexity"`
	ParticipantID string `json:"participantId"`
}

// PhaseState is the phase of a session with the guidance shown to participants.
type PhaseState struct {
	workshop.Transition
	Guidance string `json:"guidance"`
}

// GroupsView is the stored group set of a phase plus the items it does not cover.
type GroupsView struct {
	Phase     workshop.Phase       `json:"phase"`
	Groups    []workshop.GroupView `json:"groups"`
	Ungrouped []workshop.Item      `json:"ungrouped"`
}

// Matrix is the prioritization matrix with features ranked per quadrant.
type Matrix struct {
	Quadrants map[workshop.Quadrant][]export.MatrixFeature `json:"quadrants"`
}

func (s *Service) Ping(ctx context.Context) error {
	if pinger, ok := s.repo.(store.Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, boardName string) (*workshop.Session, error) {
	session := workshop.NewSession(boardName)
	if err := s.repo.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	metrics.RecordSessionCreated()
	s.recordHistory(session, "", "create session")
	s.log.WithField("session_id", session.ID).Info("session created")
	return session, nil
}

func (s *Service) Import(ctx context.Context, boardName string, doc workshop.ImportDocument) (*workshop.Session, error) {
	session, err := workshop.Import(boardName, doc)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	metrics.RecordSessionCreated()
	s.recordHistory(session, "", "import session")
	s.indexSession(session)
	s.log.WithField("session_id", session.ID).Info("session imported")
	return session, nil
}

func (s *Service) List(ctx context.Context) ([]workshop.Summary, error) {
	sessions, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]workshop.Summary, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, session.Summarize())
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*workshop.Session, error) {
	return s.repo.Get(ctx, strings.TrimSpace(id))
}

func (s *Service) SetBoard(ctx context.Context, id, boardID, url string) (*workshop.Session, error) {
	return s.mutate(ctx, id, func(session *workshop.Session) error {
		return session.SetBoard(boardID, url)
	})
}

func (s *Service) AddItem(ctx context.Context, id, phase string, input AddItemInput) (workshop.Item, error) {
	var item workshop.Item
	session, err := s.mutate(ctx, id, func(session *workshop.Session) error {
		var err error
		item, err = workshop.AddItem(session, phase, input.Text, input.ModuleID, input.CreatedBy)
		return err
	})
	if err != nil {
		return workshop.Item{}, err
	}
	s.indexSession(session)
	return item, nil
}

func (s *Service) EditItem(ctx context.Context, id, phase, itemID string, input EditItemInput) (workshop.Item, error) {
	var item workshop.Item
	session, err := s.mutate(ctx, id, func(session *workshop.Session) error {
		var err error
		item, err = workshop.EditItem(session, phase, itemID, input.Text, input.ModuleID)
		return err
	})
	if err != nil {
		return workshop.Item{}, err
	}
	s.indexSession(session)
	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, id, phase, itemID, moduleID string) error {
	if _, err := s.mutate(ctx, id, func(session *workshop.Session) error {
		return workshop.DeleteItem(session, phase, itemID, moduleID)
	}); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteItem(itemID)
	}
	return nil
}

func (s *Service) ListItems(ctx context.Context, id, phase, moduleID string) ([]workshop.Item, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return workshop.ListItems(session, phase, moduleID)
}

// GroupPhase groups the items of phase. The grouper runs outside the session
// lock; concurrent requests for the same session and phase share one call.
func (s *Service) GroupPhase(ctx context.Context, id, phase string) (workshop.GroupingResult, error) {
	id = strings.TrimSpace(id)
	result, err, _ := s.flight.Do(id+"/"+phase, func() (any, error) {
		return s.groupPhase(context.WithoutCancel(ctx), id, phase)
	})
	if err != nil {
		return workshop.GroupingResult{}, err
	}
	return result.(workshop.GroupingResult), nil
}

func (s *Service) groupPhase(ctx context.Context, id, phase string) (workshop.GroupingResult, error) {
	unlock := s.locks.Lock(id)
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		unlock()
		return workshop.GroupingResult{}, err
	}
	plan, err := workshop.PlanGrouping(session, phase, s.catalog)
	unlock()
	if err != nil {
		return workshop.GroupingResult{}, err
	}

	started := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, s.groupingTimeout)
	raw, usedFallback, err := workshop.RunGrouping(callCtx, plan, s.grouper, s.catalog, s.fallback)
	cancel()
	if err != nil {
		metrics.RecordGrouping(string(plan.Phase), "error", time.Since(started))
		s.log.WithError(err).WithFields(logrus.Fields{"session_id": id, "phase": plan.Phase}).Warn("grouping failed")
		return workshop.GroupingResult{}, err
	}
	outcome := "ai"
	if usedFallback {
		outcome = "fallback"
		s.log.WithFields(logrus.Fields{"session_id": id, "phase": plan.Phase}).Info("grouping used keyword fallback")
	}
	metrics.RecordGrouping(string(plan.Phase), outcome, time.Since(started))

	var views []workshop.GroupView
	if _, err := s.mutate(ctx, id, func(session *workshop.Session) error {
		views = workshop.CommitGrouping(session, plan, raw)
		return nil
	}); err != nil {
		return workshop.GroupingResult{}, err
	}
	return workshop.GroupingResult{Phase: plan.Phase, Groups: views, UsedFallback: usedFallback}, nil
}

// Analyze reviews text as an item of phase without storing it. When no
// analyzer is configured or the call fails the neutral analysis is returned.
func (s *Service) Analyze(ctx context.Context, id, phase, text string) (workshop.Analysis, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return workshop.Analysis{}, err
	}
	text, kind, err := workshop.PrepareAnalysis(phase, text)
	if err != nil {
		return workshop.Analysis{}, err
	}
	if s.analyzer == nil {
		return workshop.NeutralAnalysis(), nil
	}
	callCtx, cancel := context.WithTimeout(ctx, s.groupingTimeout)
	defer cancel()
	analysis, err := s.analyzer.Analyze(callCtx, text, kind)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"session_id": id, "phase": phase}).Warn("analysis failed")
		return workshop.NeutralAnalysis(), nil
	}
	if analysis.Suggestions == nil {
		analysis.Suggestions = []string{}
	}
	if analysis.RelatedItems == nil {
		analysis.RelatedItems = []string{}
	}
	return analysis, nil
}

func (s *Service) Groups(ctx context.Context, id, rawPhase string) (GroupsView, error) {
	phase, ok := workshop.ParsePhase(rawPhase)
	if !ok || !phase.Grouped() {
		return GroupsView{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("phase %q cannot be grouped", rawPhase), map[string]string{"field": "phase"})
	}
	session, err := s.Get(ctx, id)
	if err != nil {
		return GroupsView{}, err
	}
	return GroupsView{Phase: phase, Groups: session.ResolveGroups(phase), Ungrouped: session.Ungrouped(phase)}, nil
}

func (s *Service) Vote(ctx context.Context, id string, input VoteInput) (workshop.PrioritizedFeature, error) {
	var feature workshop.PrioritizedFeature
	if _, err := s.mutate(ctx, id, func(session *workshop.Session) error {
		var err error
		feature, err = workshop.RecordVote(session, input.FeatureID, input.Value, input.Complexity, input.ParticipantID)
		return err
	}); err != nil {
		return workshop.PrioritizedFeature{}, err
	}
	metrics.RecordVote(string(feature.Quadrant))
	return feature, nil
}

func (s *Service) Matrix(ctx context.Context, id string) (Matrix, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return Matrix{}, err
	}
	matrix := Matrix{Quadrants: make(map[workshop.Quadrant][]export.MatrixFeature, len(workshop.Quadrants))}
	for _, quadrant := range workshop.Quadrants {
		matrix.Quadrants[quadrant] = []export.MatrixFeature{}
	}
	for _, feature := range export.RankedFeatures(session) {
		matrix.Quadrants[feature.Quadrant] = append(matrix.Quadrants[feature.Quadrant], feature)
	}
	return matrix, nil
}

func (s *Service) Advance(ctx context.Context, id, actor string) (PhaseState, error) {
	return s.transition(ctx, id, actor, "advance", func(session *workshop.Session) (workshop.Transition, error) {
		return workshop.Advance(session), nil
	})
}

func (s *Service) Retreat(ctx context.Context, id, actor string) (PhaseState, error) {
	return s.transition(ctx, id, actor, "retreat", func(session *workshop.Session) (workshop.Transition, error) {
		return workshop.Retreat(session), nil
	})
}

func (s *Service) JumpTo(ctx context.Context, id, target, actor string) (PhaseState, error) {
	return s.transition(ctx, id, actor, "jump", func(session *workshop.Session) (workshop.Transition, error) {
		return workshop.JumpTo(session, target)
	})
}

func (s *Service) transition(ctx context.Context, id, actor, kind string, apply func(*workshop.Session) (workshop.Transition, error)) (PhaseState, error) {
	var transition workshop.Transition
	_, err := s.mutateThen(ctx, id, func(session *workshop.Session) error {
		var err error
		transition, err = apply(session)
		return err
	}, func(session *workshop.Session) {
		if transition.Changed {
			s.recordHistory(session, actor, fmt.Sprintf("%s: %s -> %s", kind, transition.From, transition.To))
		}
	})
	if err != nil {
		return PhaseState{}, err
	}
	if transition.Changed {
		metrics.RecordTransition(kind, string(transition.To))
	}
	return PhaseState{Transition: transition, Guidance: s.catalog.Guidance(transition.To)}, nil
}

func (s *Service) Guidance(ctx context.Context, id string) (PhaseState, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return PhaseState{}, err
	}
	phase := session.CurrentPhase
	return PhaseState{
		Transition: workshop.Transition{From: phase, To: phase},
		Guidance:   s.catalog.Guidance(phase),
	}, nil
}

func (s *Service) Export(ctx context.Context, id string) (export.Snapshot, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return export.Snapshot{}, err
	}
	return export.BuildSnapshot(session), nil
}

func (s *Service) BoardLayout(ctx context.Context, id string) ([]export.Element, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return export.BoardLayout(session), nil
}

func (s *Service) DeckHTML(ctx context.Context, id string) (string, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return export.RenderDeckHTML(export.BuildDeck(session))
}

// DeckPDF renders the slide deck with headless Chrome. With upload set the
// PDF is also stored in the artifact bucket.
func (s *Service) DeckPDF(ctx context.Context, id string, upload bool) (*export.Result, *export.Artifact, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	deck := export.BuildDeck(session)
	html, err := export.RenderDeckHTML(deck)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.renderPDF(ctx, html, deck.Title)
	if err != nil {
		return nil, nil, err
	}
	if !upload {
		return result, nil, nil
	}
	if s.artifacts == nil {
		return nil, nil, export.ErrStorageDisabled
	}
	artifact, err := s.artifacts.Upload(ctx, session.ID, result)
	if err != nil {
		return nil, nil, fmt.Errorf("upload deck: %w", err)
	}
	return result, &artifact, nil
}

func (s *Service) History(ctx context.Context, id string, limit int) ([]history.Entry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []history.Entry{}, nil
	}
	return s.history.History(strings.TrimSpace(id), limit)
}

func (s *Service) HistorySnapshot(ctx context.Context, id, hash string) (*workshop.Session, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, workshop.NotFound("snapshot", hash)
	}
	return s.history.Snapshot(strings.TrimSpace(id), hash)
}

func (s *Service) Search(ctx context.Context, q search.Query) (search.Response, error) {
	if strings.TrimSpace(q.Text) == "" {
		return search.Response{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "q is required", map[string]string{"field": "q"})
	}
	if s.search == nil {
		return search.Response{}, domainError(http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "Search not configured", nil)
	}
	return s.search.Search(ctx, q), nil
}

// mutate applies fn to a fresh copy of the session under the session lock
// and persists the result. A failing fn leaves the stored session untouched.
func (s *Service) mutate(ctx context.Context, id string, fn func(*workshop.Session) error) (*workshop.Session, error) {
	return s.mutateThen(ctx, id, fn, nil)
}

// mutateThen is mutate with a hook that runs after the session is saved,
// still under the session lock.
func (s *Service) mutateThen(ctx context.Context, id string, fn func(*workshop.Session) error, saved func(*workshop.Session)) (*workshop.Session, error) {
	id = strings.TrimSpace(id)
	defer s.locks.Lock(id)()

	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if saved != nil {
		saved(session)
	}
	return session, nil
}

func (s *Service) recordHistory(session *workshop.Session, actor, message string) {
	if s.history == nil {
		return
	}
	if _, err := s.history.Record(session, actor, message); err != nil {
		s.log.WithError(err).WithField("session_id", session.ID).Warn("record history")
	}
}

func (s *Service) indexSession(session *workshop.Session) {
	if s.search != nil {
		s.search.IndexSession(session)
	}
}
