package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"fusion-agent-be/internal/entity"
	"fusion-agent-be/internal/repository/contract"
	"fusion-agent-be/internal/repository/specification"
	"fusion-agent-be/internal/repository/unitofwork"
)

// memDB backs the fake unit of work. Specifications are interpreted by type.
type memDB struct {
	mu          sync.Mutex
	nextID      int64
	messages    []*entity.ConversationMessage
	attachments []*entity.ConversationAttachment
	contexts    []*entity.QueryContext
	audits      []*entity.TurnAudit

	failFind   error
	failCreate error
	finds      int
	clock      time.Time
}

func newMemDB() *memDB {
	return &memDB{clock: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

type filter struct {
	id       *int64
	threadID *string
	stream   *string
	descr    *string
	desc     bool
	limit    int
}

func parseSpecs(specs []specification.Specification) filter {
	var f filter
	for _, s := range specs {
		switch v := s.(type) {
		case specification.ByID:
			id := v.ID
			f.id = &id
		case specification.ByThreadID:
			t := v.ThreadID
			f.threadID = &t
		case specification.ByDomainStream:
			st := normalizeStream(v.Stream)
			f.stream = &st
		case specification.OrderBy:
			if v.Field == "created_at" {
				f.desc = v.Desc
			}
		case specification.Pagination:
			f.limit = v.Limit
		case specification.FilterBy:
			if d, ok := v.Value.(string); ok && v.Field == "description" {
				f.descr = &d
			}
		}
	}
	return f
}

type fakeFactory struct{ db *memDB }

func (f fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUoW{db: f.db}
}

type fakeUoW struct {
	db   *memDB
	inTx bool
}

func (u *fakeUoW) Begin(ctx context.Context) error {
	if u.inTx {
		return errors.New("transaction already started")
	}
	u.inTx = true
	return nil
}

func (u *fakeUoW) Commit() error {
	u.inTx = false
	return nil
}

func (u *fakeUoW) Rollback() error {
	u.inTx = false
	return nil
}

func (u *fakeUoW) ConversationMessageRepository() contract.ConversationMessageRepository {
	return &fakeMessageRepo{db: u.db}
}

func (u *fakeUoW) ConversationAttachmentRepository() contract.ConversationAttachmentRepository {
	return &fakeAttachmentRepo{db: u.db}
}

func (u *fakeUoW) QueryContextRepository() contract.QueryContextRepository {
	return &fakeContextRepo{db: u.db}
}

func (u *fakeUoW) TurnAuditRepository() contract.TurnAuditRepository {
	return &fakeAuditRepo{db: u.db}
}

type fakeMessageRepo struct{ db *memDB }

func (r *fakeMessageRepo) Create(ctx context.Context, m *entity.ConversationMessage) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failCreate != nil {
		return r.db.failCreate
	}
	r.db.nextID++
	m.Id = r.db.nextID
	m.CreatedAt = r.db.tick()
	cp := *m
	r.db.messages = append(r.db.messages, &cp)
	return nil
}

func (r *fakeMessageRepo) UpdateContent(ctx context.Context, id int64, content string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, m := range r.db.messages {
		if m.Id == id {
			m.Content = content
			return nil
		}
	}
	return errors.New("conversation message not found")
}

func (r *fakeMessageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConversationMessage, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationMessage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.finds++
	if r.db.failFind != nil {
		return nil, r.db.failFind
	}
	f := parseSpecs(specs)
	var out []*entity.ConversationMessage
	for _, m := range r.db.messages {
		if f.id != nil && m.Id != *f.id {
			continue
		}
		if f.threadID != nil && m.ThreadId != *f.threadID {
			continue
		}
		if f.stream != nil && m.DomainStream != *f.stream {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.desc {
			return out[i].Id > out[j].Id
		}
		return out[i].Id < out[j].Id
	})
	if f.limit > 0 && len(out) > f.limit {
		out = out[:f.limit]
	}
	return out, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

type fakeAttachmentRepo struct{ db *memDB }

func (r *fakeAttachmentRepo) Create(ctx context.Context, a *entity.ConversationAttachment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failCreate != nil {
		return r.db.failCreate
	}
	r.db.nextID++
	a.Id = r.db.nextID
	cp := *a
	r.db.attachments = append(r.db.attachments, &cp)
	return nil
}

func (r *fakeAttachmentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConversationAttachment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	f := parseSpecs(specs)
	for _, a := range r.db.attachments {
		if f.id == nil || a.Id == *f.id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

type fakeContextRepo struct{ db *memDB }

func (r *fakeContextRepo) Create(ctx context.Context, qc *entity.QueryContext) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.nextID++
	qc.Id = r.db.nextID
	qc.DomainStream = normalizeStream(qc.DomainStream)
	cp := *qc
	r.db.contexts = append(r.db.contexts, &cp)
	return nil
}

func (r *fakeContextRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QueryContext, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *fakeContextRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QueryContext, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.finds++
	if r.db.failFind != nil {
		return nil, r.db.failFind
	}
	f := parseSpecs(specs)
	var out []*entity.QueryContext
	for _, qc := range r.db.contexts {
		if f.id != nil && qc.Id != *f.id {
			continue
		}
		if f.stream != nil && qc.DomainStream != *f.stream {
			continue
		}
		if f.descr != nil && qc.Description != *f.descr {
			continue
		}
		cp := *qc
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeContextRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

type fakeAuditRepo struct{ db *memDB }

func (r *fakeAuditRepo) Create(ctx context.Context, a *entity.TurnAudit) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failCreate != nil {
		return r.db.failCreate
	}
	cp := *a
	r.db.audits = append(r.db.audits, &cp)
	return nil
}

func (r *fakeAuditRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TurnAudit, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]*entity.TurnAudit(nil), r.db.audits...), nil
}

func (db *memDB) auditCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.audits)
}
