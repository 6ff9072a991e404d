package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
)

// projectDocument stores the total value as Decimal128 so sums stay exact.
type projectDocument struct {
	ID             string               `bson:"_id"`
	Name           string               `bson:"name"`
	Status         domain.ProjectStatus `bson:"status"`
	SupervisorID   string               `bson:"supervisor_id,omitempty"`
	ResponsibleIDs []string             `bson:"responsible_ids"`
	TotalValue     primitive.Decimal128 `bson:"total_value"`
	Progress       float64              `bson:"progress"`
	CreatedAt      time.Time            `bson:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at"`
}

func toProjectDocument(p *domain.Project) (projectDocument, error) {
	value, err := primitive.ParseDecimal128(p.TotalValue.String())
	if err != nil {
		return projectDocument{}, fmt.Errorf("total value: %w", err)
	}
	return projectDocument{
		ID:             p.ID,
		Name:           p.Name,
		Status:         p.Status,
		SupervisorID:   p.SupervisorID,
		ResponsibleIDs: p.ResponsibleIDs,
		TotalValue:     value,
		Progress:       p.Progress,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}, nil
}

func (d projectDocument) toDomain() (*domain.Project, error) {
	value := decimal.Zero
	if s := d.TotalValue.String(); s != "" && !d.TotalValue.IsZero() {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("project %s total value %q: %w", d.ID, s, err)
		}
		value = v
	}
	return &domain.Project{
		ID:             d.ID,
		Name:           d.Name,
		Status:         d.Status,
		SupervisorID:   d.SupervisorID,
		ResponsibleIDs: d.ResponsibleIDs,
		TotalValue:     value,
		Progress:       d.Progress,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}, nil
}

// ProjectRepository implements ports.ProjectRepository. Stages live in their
// own collection and are never embedded in the returned projects.
type ProjectRepository struct {
	col *mongo.Collection
}

func NewProjectRepository(db *mongo.Database) *ProjectRepository {
	return &ProjectRepository{col: db.Collection(collectionProjects)}
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toProjectDocument(p)
	if err != nil {
		return err
	}
	_, err = r.col.InsertOne(ctx, doc)
	return err
}

func (r *ProjectRepository) List(ctx context.Context) ([]*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	var docs []projectDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}

	out := make([]*domain.Project, 0, len(docs))
	for _, d := range docs {
		p, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc projectDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	return doc.toDomain()
}

// StageRepository implements ports.StageRepository using MongoDB.
type StageRepository struct {
	col *mongo.Collection
}

func NewStageRepository(db *mongo.Database) *StageRepository {
	return &StageRepository{col: db.Collection(collectionStages)}
}

func (r *StageRepository) Create(ctx context.Context, s *domain.Stage) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *StageRepository) FindByID(ctx context.Context, id string) (*domain.Stage, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.Stage
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrStageNotFound
		}
		return nil, fmt.Errorf("find stage: %w", err)
	}
	return &s, nil
}

func (r *StageRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Stage, error) {
	return r.find(ctx, bson.M{"project_id": projectID})
}

func (r *StageRepository) ListByMember(ctx context.Context, userID string) ([]domain.Stage, error) {
	return r.find(ctx, bson.M{"$or": bson.A{
		bson.M{"executor_id": userID},
		bson.M{"team_ids": userID},
	}})
}

// UpdateStatus moves the stage from one status to another. Pairs the
// lifecycle does not allow are refused before touching the collection.
func (r *StageRepository) UpdateStatus(ctx context.Context, id string, from, to domain.StageStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: stage %s cannot move from %s to %s", domain.ErrInvalidTransition, id, from, to)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("update stage status: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, id, fmt.Errorf("%w: stage %s is no longer %s", domain.ErrInvalidTransition, id, from))
	}
	return nil
}

func (r *StageRepository) SetItemMarked(ctx context.Context, id string, index int, marked bool) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	field := fmt.Sprintf("checklist.%d.marked", index)
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, fmt.Sprintf("checklist.%d", index): bson.M{"$exists": true}},
		bson.M{"$set": bson.M{field: marked, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("mark checklist item: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, id, domain.NewValidationError("index", "checklist item does not exist"))
	}
	return nil
}

// missOrConflict distinguishes a missing stage from a filter that no longer
// matches it.
func (r *StageRepository) missOrConflict(ctx context.Context, id string, conflict error) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("count stage: %w", err)
	}
	if n == 0 {
		return domain.ErrStageNotFound
	}
	return conflict
}

func (r *StageRepository) find(ctx context.Context, filter bson.M) ([]domain.Stage, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	out := []domain.Stage{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode stages: %w", err)
	}
	return out, nil
}
