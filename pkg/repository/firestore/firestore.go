package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"google.golang.org/api/iterator"
)

const (
	usersCollection         = "users"
	relationshipsCollection = "relationships"
	activePairsCollection   = "relationship_pairs"
	interactionsCollection  = "interactions"

	// Maximum document references per GetAll
	firestoreGetAllLimit = 30
)

// collections resolves collection names with an optional prefix
type collections struct {
	client *firestore.Client
	prefix string
}

func (c *collections) get(name string) *firestore.CollectionRef {
	if c.prefix != "" {
		return c.client.Collection(c.prefix + "_" + name)
	}
	return c.client.Collection(name)
}

type Firestore struct {
	client       *firestore.Client
	cols         *collections
	user         *userRepository
	relationship *relationshipRepository
	interaction  *interactionRepository
	now          func() time.Time
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.cols.prefix = prefix
	}
}

// WithClock overrides the time source used for generated timestamps
func WithClock(now func() time.Time) Option {
	return func(f *Firestore) {
		f.now = now
	}
}

// New connects to Firestore. An empty databaseID selects the default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client: client,
		cols:   &collections{client: client},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	clock := func() time.Time { return f.now().UTC() }
	f.user = &userRepository{client: client, cols: f.cols, now: clock}
	f.relationship = &relationshipRepository{client: client, cols: f.cols, users: f.user, now: clock}
	f.interaction = &interactionRepository{client: client, cols: f.cols, now: clock}

	return f, nil
}

func (f *Firestore) User() interfaces.UserRepository {
	return f.user
}

func (f *Firestore) Relationship() interfaces.RelationshipRepository {
	return f.relationship
}

func (f *Firestore) Interaction() interfaces.InteractionRepository {
	return f.interaction
}

// Reset deletes every document of the managed collections and writes seed.
// It is not atomic across collections.
func (f *Firestore) Reset(ctx context.Context, seed *model.Seed) (*model.ResetResult, error) {
	for _, name := range []string{usersCollection, relationshipsCollection, activePairsCollection, interactionsCollection} {
		if err := deleteAll(ctx, f.client, f.cols.get(name)); err != nil {
			return nil, goerr.Wrap(err, "failed to clear collection", goerr.V("collection", name))
		}
	}

	data := seed.Clone()
	bw := f.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob

	set := func(ref *firestore.DocumentRef, v any) error {
		job, err := bw.Set(ref, v)
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
		return nil
	}

	for _, u := range data.Users {
		if err := set(f.cols.get(usersCollection).Doc(string(u.ID)), toUserDoc(u)); err != nil {
			bw.End()
			return nil, goerr.Wrap(err, "failed to queue user", goerr.V("user_id", u.ID))
		}
	}
	for _, r := range data.Relationships {
		if r.ID == "" {
			r.ID = model.NewRelationshipID()
		}
		if err := set(f.cols.get(relationshipsCollection).Doc(string(r.ID)), toRelationshipDoc(r)); err != nil {
			bw.End()
			return nil, goerr.Wrap(err, "failed to queue relationship", goerr.V("relationship_id", r.ID))
		}
		if r.Active {
			pair := f.cols.get(activePairsCollection).Doc(pairKey(r.OwnerID, r.ContactID))
			if err := set(pair, &pairDoc{RelationshipID: string(r.ID)}); err != nil {
				bw.End()
				return nil, goerr.Wrap(err, "failed to queue relationship pair", goerr.V("relationship_id", r.ID))
			}
		}
	}
	for _, x := range data.Interactions {
		if err := set(f.cols.get(interactionsCollection).Doc(x.ID), toInteractionDoc(x)); err != nil {
			bw.End()
			return nil, goerr.Wrap(err, "failed to queue interaction", goerr.V("interaction_id", x.ID))
		}
	}
	bw.End()

	if err := waitJobs(jobs); err != nil {
		return nil, goerr.Wrap(err, "failed to write seed")
	}

	return &model.ResetResult{
		Users:         len(data.Users),
		Relationships: len(data.Relationships),
		Interactions:  len(data.Interactions),
	}, nil
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func deleteAll(ctx context.Context, client *firestore.Client, col *firestore.CollectionRef) error {
	iter := col.Documents(ctx)
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate documents for deletion")
		}
		refs = append(refs, doc.Ref)
	}

	if len(refs) == 0 {
		return nil
	}

	bw := client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to add Delete operation to bulk writer")
		}
		jobs = append(jobs, job)
	}
	bw.End()

	if err := waitJobs(jobs); err != nil {
		return goerr.Wrap(err, "failed to delete documents", goerr.V("collection", col.ID))
	}
	return nil
}

// waitJobs returns the first failed write of jobs. The BulkWriter must be
// ended before calling it.
func waitJobs(jobs []*firestore.BulkWriterJob) error {
	var failed int
	var first error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			if first == nil {
				first = err
			}
			failed++
		}
	}
	if first != nil {
		return goerr.Wrap(first, "bulk write failed", goerr.V("failed", failed), goerr.V("total", len(jobs)))
	}
	return nil
}
