package badger

import (
	"context"
	"errors"

	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/core/valueobjects"
	pkgerrors "linklist-backend/pkg/errors"

	"github.com/dgraph-io/badger/v4"
)

func commentKey(id string) string { return "comment/" + id }

func entityIndexPrefix(ref valueobjects.EntityRef) string {
	return "idx/comment-entity/" + string(ref.Type()) + "/" + ref.ID() + "/"
}

func parentIndexPrefix(parentID string) string {
	return "idx/comment-parent/" + parentID + "/"
}

func topLevelGuardKey(ref valueobjects.EntityRef, userID string) string {
	return "guard/top/" + string(ref.Type()) + "/" + ref.ID() + "/" + userID
}

// CommentRepository implements ports.CommentRepository
type CommentRepository struct {
	store *Store
}

// NewCommentRepository creates a comment repository on store
func NewCommentRepository(store *Store) *CommentRepository {
	return &CommentRepository{store: store}
}

// CreateTopLevel writes the guard and the comment in one transaction
func (r *CommentRepository) CreateTopLevel(ctx context.Context, comment *entities.Comment) error {
	guard := topLevelGuardKey(comment.Ref(), comment.UserID())
	return r.store.update(ctx, "CreateTopLevel", func(txn *badger.Txn) error {
		found, err := exists(txn, guard)
		if err != nil {
			return err
		}
		if found {
			return pkgerrors.NewDuplicatePostError("top-level comment already exists")
		}
		if err := txn.Set([]byte(guard), []byte(comment.ID())); err != nil {
			return err
		}
		return putComment(txn, comment)
	})
}

func (r *CommentRepository) CreateReply(ctx context.Context, reply *entities.Comment) error {
	return r.store.update(ctx, "CreateReply", func(txn *badger.Txn) error {
		return putComment(txn, reply)
	})
}

func putComment(txn *badger.Txn, c *entities.Comment) error {
	if err := setJSON(txn, commentKey(c.ID()), toCommentRecord(c)); err != nil {
		return err
	}
	if err := txn.Set([]byte(entityIndexPrefix(c.Ref())+c.ID()), nil); err != nil {
		return err
	}
	if !c.IsTopLevel() {
		return txn.Set([]byte(parentIndexPrefix(c.ParentID())+c.ID()), nil)
	}
	return nil
}

func (r *CommentRepository) GetComment(ctx context.Context, commentID string) (*entities.Comment, error) {
	var c *entities.Comment
	err := r.store.view(ctx, "GetComment", func(txn *badger.Txn) error {
		var err error
		c, err = loadComment(txn, commentID)
		return err
	})
	return c, err
}

func loadComment(txn *badger.Txn, id string) (*entities.Comment, error) {
	var rec commentRecord
	err := getJSON(txn, commentKey(id), &rec)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, pkgerrors.NewNotFoundError("comment")
	}
	if err != nil {
		return nil, err
	}
	return rec.toEntity()
}

// UpdateComment rewrites content and updatedAt of an existing comment
func (r *CommentRepository) UpdateComment(ctx context.Context, comment *entities.Comment) error {
	key := commentKey(comment.ID())
	return r.store.update(ctx, "UpdateComment", func(txn *badger.Txn) error {
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		if !found {
			return pkgerrors.NewNotFoundError("comment")
		}
		return setJSON(txn, key, toCommentRecord(comment))
	})
}

// DeleteComment removes the comment, its index entries and, for top-level
// comments, the posting guard.
func (r *CommentRepository) DeleteComment(ctx context.Context, comment *entities.Comment) error {
	return r.store.update(ctx, "DeleteComment", func(txn *badger.Txn) error {
		keys := []string{
			commentKey(comment.ID()),
			entityIndexPrefix(comment.Ref()) + comment.ID(),
		}
		if comment.IsTopLevel() {
			keys = append(keys, topLevelGuardKey(comment.Ref(), comment.UserID()))
		} else {
			keys = append(keys, parentIndexPrefix(comment.ParentID())+comment.ID())
		}
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CommentRepository) ListByEntity(ctx context.Context, ref valueobjects.EntityRef) ([]*entities.Comment, error) {
	return r.listIndexed(ctx, "ListByEntity", entityIndexPrefix(ref))
}

func (r *CommentRepository) ListReplies(ctx context.Context, parentID string) ([]*entities.Comment, error) {
	return r.listIndexed(ctx, "ListReplies", parentIndexPrefix(parentID))
}

func (r *CommentRepository) listIndexed(ctx context.Context, op, prefix string) ([]*entities.Comment, error) {
	var out []*entities.Comment
	err := r.store.view(ctx, op, func(txn *badger.Txn) error {
		for _, id := range scanKeys(txn, prefix) {
			c, err := loadComment(txn, id)
			if pkgerrors.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
