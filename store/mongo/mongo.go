/*
Package mongo provides a MongoDB-backed implementation of procure.Store.

PURPOSE:
  One collection per entity (requisitions, purchase_orders). This is the
  store that delivers all three capabilities natively:

  - UpdateRequisition and CommitBundle run inside a session transaction, so
    the transition re-check always sees the document it overwrites and the
    bundle commit is genuinely all-or-nothing across both collections.
  - Watch bridges change streams on both collections into the engine's
    event channel.

  Requires a replica set (or mongos), as MongoDB transactions and change
  streams do.

USAGE:
  st, err := mongo.Connect(ctx, cfg.DSN(), cfg.Database())
  defer st.Close(ctx)

SEE ALSO:
  - procure/store.go: Interface and error contract
  - store/sqlite: Document store without native streams
*/
package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodrv "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/warp/procure-engine/procure"
)

const (
	collRequisitions   = "requisitions"
	collPurchaseOrders = "purchase_orders"
)

// Store implements procure.Store using MongoDB.
type Store struct {
	client *mongodrv.Client
	reqs   *mongodrv.Collection
	orders *mongodrv.Collection
}

// Connect dials the deployment, pings the primary, and ensures indexes.
func Connect(ctx context.Context, dsn, database string) (*Store, error) {
	client, err := mongodrv.Connect(options.Client().ApplyURI(dsn))
	if err != nil {
		return nil, &procure.StoreError{Op: "connect", Err: err}
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, &procure.StoreError{Op: "ping", Err: err}
	}

	db := client.Database(database)
	s := &Store{
		client: client,
		reqs:   db.Collection(collRequisitions),
		orders: db.Collection(collPurchaseOrders),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, &procure.StoreError{Op: "ensure indexes", Err: err}
	}
	return s, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.reqs.Indexes().CreateMany(ctx, []mongodrv.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "updated_at", Value: -1}}},
	})
	if err != nil {
		return err
	}
	_, err = s.orders.Indexes().CreateMany(ctx, []mongodrv.IndexModel{
		{Keys: bson.D{{Key: "po_number", Value: 1}}},
		{Keys: bson.D{{Key: "updated_at", Value: -1}}},
	})
	return err
}

// =============================================================================
// REQUISITIONS
// =============================================================================

func (s *Store) InsertRequisition(ctx context.Context, r *procure.Requisition) error {
	if _, err := s.reqs.InsertOne(ctx, entityFromRequisition(r)); err != nil {
		return &procure.StoreError{Op: "insert requisition", Err: err}
	}
	return nil
}

func (s *Store) Requisition(ctx context.Context, id procure.RequisitionID) (*procure.Requisition, error) {
	var ent requisitionEntity
	err := s.reqs.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&ent)
	if errors.Is(err, mongodrv.ErrNoDocuments) {
		return nil, &procure.NotFoundError{Kind: "requisition", ID: string(id)}
	}
	if err != nil {
		return nil, &procure.StoreError{Op: "get requisition", Err: err}
	}
	return entityToRequisition(&ent), nil
}

func (s *Store) Requisitions(ctx context.Context) ([]*procure.Requisition, error) {
	cur, err := s.reqs.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, &procure.StoreError{Op: "list requisitions", Err: err}
	}
	defer cur.Close(ctx)

	var out []*procure.Requisition
	for cur.Next(ctx) {
		var ent requisitionEntity
		if err := cur.Decode(&ent); err != nil {
			return nil, &procure.StoreError{Op: "list requisitions", Err: err}
		}
		out = append(out, entityToRequisition(&ent))
	}
	if err := cur.Err(); err != nil {
		return nil, &procure.StoreError{Op: "list requisitions", Err: err}
	}
	return out, nil
}

func (s *Store) UpdateRequisition(ctx context.Context, id procure.RequisitionID, mutate func(*procure.Requisition) error) (*procure.Requisition, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, &procure.StoreError{Op: "update requisition", Err: err}
	}
	defer sess.EndSession(ctx)

	result, err := sess.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		var ent requisitionEntity
		err := s.reqs.FindOne(txCtx, bson.M{"_id": string(id)}).Decode(&ent)
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return nil, &procure.NotFoundError{Kind: "requisition", ID: string(id)}
		}
		if err != nil {
			return nil, &procure.StoreError{Op: "update requisition", Err: err}
		}

		r := entityToRequisition(&ent)
		if err := mutate(r); err != nil {
			return nil, err
		}

		if _, err := s.reqs.ReplaceOne(txCtx, bson.M{"_id": string(id)}, entityFromRequisition(r)); err != nil {
			return nil, &procure.StoreError{Op: "update requisition", Err: err}
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*procure.Requisition), nil
}

// =============================================================================
// PURCHASE ORDERS
// =============================================================================

func (s *Store) PurchaseOrder(ctx context.Context, id procure.POID) (*procure.PurchaseOrder, error) {
	var ent purchaseOrderEntity
	err := s.orders.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&ent)
	if errors.Is(err, mongodrv.ErrNoDocuments) {
		return nil, &procure.NotFoundError{Kind: "purchase order", ID: string(id)}
	}
	if err != nil {
		return nil, &procure.StoreError{Op: "get purchase order", Err: err}
	}
	return entityToPurchaseOrder(&ent), nil
}

func (s *Store) PurchaseOrders(ctx context.Context) ([]*procure.PurchaseOrder, error) {
	cur, err := s.orders.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, &procure.StoreError{Op: "list purchase orders", Err: err}
	}
	defer cur.Close(ctx)

	var out []*procure.PurchaseOrder
	for cur.Next(ctx) {
		var ent purchaseOrderEntity
		if err := cur.Decode(&ent); err != nil {
			return nil, &procure.StoreError{Op: "list purchase orders", Err: err}
		}
		out = append(out, entityToPurchaseOrder(&ent))
	}
	if err := cur.Err(); err != nil {
		return nil, &procure.StoreError{Op: "list purchase orders", Err: err}
	}
	return out, nil
}

// CommitBundle runs the PO insert and every requisition flip in one session
// transaction spanning both collections.
func (s *Store) CommitBundle(ctx context.Context, po *procure.PurchaseOrder, ids []procure.RequisitionID, mutate func(*procure.Requisition) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return &procure.StoreError{Op: "commit bundle", Err: err}
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		for _, id := range ids {
			var ent requisitionEntity
			err := s.reqs.FindOne(txCtx, bson.M{"_id": string(id)}).Decode(&ent)
			if errors.Is(err, mongodrv.ErrNoDocuments) {
				return nil, &procure.NotFoundError{Kind: "requisition", ID: string(id)}
			}
			if err != nil {
				return nil, &procure.StoreError{Op: "commit bundle", Err: err}
			}

			r := entityToRequisition(&ent)
			if err := mutate(r); err != nil {
				return nil, err
			}
			if _, err := s.reqs.ReplaceOne(txCtx, bson.M{"_id": string(id)}, entityFromRequisition(r)); err != nil {
				return nil, &procure.StoreError{Op: "commit bundle", Err: err}
			}
		}

		if _, err := s.orders.InsertOne(txCtx, entityFromPurchaseOrder(po)); err != nil {
			return nil, &procure.StoreError{Op: "commit bundle", Err: err}
		}
		return nil, nil
	})
	return err
}

// =============================================================================
// CHANGE FEED / RESET
// =============================================================================

// Watch bridges change streams on both collections into one event channel.
// The channel closes when ctx ends or both streams are exhausted.
func (s *Store) Watch(ctx context.Context) (<-chan procure.Event, error) {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	reqStream, err := s.reqs.Watch(ctx, mongodrv.Pipeline{}, opts)
	if err != nil {
		return nil, &procure.StoreError{Op: "watch requisitions", Err: err}
	}
	poStream, err := s.orders.Watch(ctx, mongodrv.Pipeline{}, opts)
	if err != nil {
		_ = reqStream.Close(ctx)
		return nil, &procure.StoreError{Op: "watch purchase orders", Err: err}
	}

	out := make(chan procure.Event, 64)
	done := make(chan struct{}, 2)

	go func() {
		defer func() { done <- struct{}{} }()
		defer reqStream.Close(context.Background())
		for reqStream.Next(ctx) {
			var change struct {
				OperationType string             `bson:"operationType"`
				FullDocument  *requisitionEntity `bson:"fullDocument"`
			}
			if err := reqStream.Decode(&change); err != nil || change.FullDocument == nil {
				continue
			}
			emit(ctx, out, procure.Event{
				Type:        eventType(change.OperationType),
				Requisition: entityToRequisition(change.FullDocument),
			})
		}
	}()

	go func() {
		defer func() { done <- struct{}{} }()
		defer poStream.Close(context.Background())
		for poStream.Next(ctx) {
			var change struct {
				OperationType string               `bson:"operationType"`
				FullDocument  *purchaseOrderEntity `bson:"fullDocument"`
			}
			if err := poStream.Decode(&change); err != nil || change.FullDocument == nil {
				continue
			}
			emit(ctx, out, procure.Event{
				Type:          eventType(change.OperationType),
				PurchaseOrder: entityToPurchaseOrder(change.FullDocument),
			})
		}
	}()

	go func() {
		<-done
		<-done
		close(out)
	}()

	return out, nil
}

// Reset drops both collections (demo scenario support).
func (s *Store) Reset(ctx context.Context) error {
	if err := s.reqs.Drop(ctx); err != nil {
		return &procure.StoreError{Op: "reset", Err: err}
	}
	if err := s.orders.Drop(ctx); err != nil {
		return &procure.StoreError{Op: "reset", Err: err}
	}
	return s.ensureIndexes(ctx)
}

func emit(ctx context.Context, out chan<- procure.Event, e procure.Event) {
	select {
	case out <- e:
	case <-ctx.Done():
	}
}

func eventType(op string) procure.EventType {
	if op == "insert" {
		return procure.EventInserted
	}
	return procure.EventUpdated
}
