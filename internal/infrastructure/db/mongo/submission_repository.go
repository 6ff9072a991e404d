package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
)

var newestFirst = bson.D{{Key: "submitted_at", Value: -1}, {Key: "_id", Value: -1}}

// ChecklistSubmissionRepository implements ports.ChecklistSubmissionRepository.
type ChecklistSubmissionRepository struct {
	col *mongo.Collection
}

func NewChecklistSubmissionRepository(db *mongo.Database) *ChecklistSubmissionRepository {
	return &ChecklistSubmissionRepository{col: db.Collection(collectionSubmissions)}
}

func (r *ChecklistSubmissionRepository) Create(ctx context.Context, s *domain.ChecklistSubmission) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("insert checklist submission: %w", err)
	}
	return nil
}

func (r *ChecklistSubmissionRepository) FindByID(ctx context.Context, id string) (*domain.ChecklistSubmission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.ChecklistSubmission
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("find checklist submission: %w", err)
	}
	return &s, nil
}

func (r *ChecklistSubmissionRepository) Latest(ctx context.Context, stageID string, index int) (*domain.ChecklistSubmission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.ChecklistSubmission
	err := r.col.FindOne(ctx,
		bson.M{"stage_id": stageID, "checklist_index": index},
		options.FindOne().SetSort(newestFirst),
	).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest checklist submission: %w", err)
	}
	return &s, nil
}

func (r *ChecklistSubmissionRepository) ListByStage(ctx context.Context, stageID string) ([]domain.ChecklistSubmission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"stage_id": stageID},
		options.Find().SetSort(bson.D{{Key: "checklist_index", Value: 1}, {Key: "submitted_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list checklist submissions: %w", err)
	}
	out := []domain.ChecklistSubmission{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode checklist submissions: %w", err)
	}
	return out, nil
}

func (r *ChecklistSubmissionRepository) UpdateReview(ctx context.Context, s *domain.ChecklistSubmission) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": s.ID, "status": domain.SubmissionUnderReview},
		bson.M{"$set": bson.M{
			"status":         s.Status,
			"reviewed_by":    s.ReviewedBy,
			"review_comment": s.ReviewComment,
			"reviewed_at":    s.ReviewedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("update checklist review: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: submission %s is no longer under review", domain.ErrInvalidTransition, s.ID)
	}
	return nil
}

// DeliverableRepository implements ports.DeliverableRepository.
type DeliverableRepository struct {
	col *mongo.Collection
}

func NewDeliverableRepository(db *mongo.Database) *DeliverableRepository {
	return &DeliverableRepository{col: db.Collection(collectionDeliverables)}
}

func (r *DeliverableRepository) Create(ctx context.Context, d *domain.Deliverable) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("insert deliverable: %w", err)
	}
	return nil
}

func (r *DeliverableRepository) FindByID(ctx context.Context, id string) (*domain.Deliverable, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d domain.Deliverable
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDeliverableNotFound
		}
		return nil, fmt.Errorf("find deliverable: %w", err)
	}
	return &d, nil
}

func (r *DeliverableRepository) Latest(ctx context.Context, stageID string) (*domain.Deliverable, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d domain.Deliverable
	err := r.col.FindOne(ctx, bson.M{"stage_id": stageID}, options.FindOne().SetSort(newestFirst)).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest deliverable: %w", err)
	}
	return &d, nil
}

func (r *DeliverableRepository) ListByStage(ctx context.Context, stageID string) ([]domain.Deliverable, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"stage_id": stageID}, options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list deliverables: %w", err)
	}
	out := []domain.Deliverable{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode deliverables: %w", err)
	}
	return out, nil
}

// UpdateContent rewrites description and image in place, only while the
// deliverable is still under review.
func (r *DeliverableRepository) UpdateContent(ctx context.Context, d *domain.Deliverable) error {
	update := bson.M{"$set": bson.M{"description": d.Description, "updated_at": d.UpdatedAt}}
	if d.Image != nil {
		update["$set"].(bson.M)["image"] = d.Image
	} else {
		update["$unset"] = bson.M{"image": ""}
	}
	return r.updateUnderReview(ctx, d.ID, update)
}

func (r *DeliverableRepository) UpdateReview(ctx context.Context, d *domain.Deliverable) error {
	return r.updateUnderReview(ctx, d.ID, bson.M{"$set": bson.M{
		"status":      d.Status,
		"reviewed_by": d.ReviewedBy,
		"comment":     d.Comment,
		"reviewed_at": d.ReviewedAt,
	}})
}

func (r *DeliverableRepository) updateUnderReview(ctx context.Context, id string, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "status": domain.DeliverableUnderReview}, update)
	if err != nil {
		return fmt.Errorf("update deliverable: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: deliverable %s is no longer under review", domain.ErrInvalidTransition, id)
	}
	return nil
}
