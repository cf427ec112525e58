package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eventra/eventra_backend/services"
)

// MongoTxRunner executes store operations inside a Mongo multi-document
// transaction. Transient conflicts are retried a bounded number of times
// before surfacing as a SerializationConflictError.
type MongoTxRunner struct {
	client *mongo.Client
}

func NewMongoTxRunner(client *mongo.Client) *MongoTxRunner {
	return &MongoTxRunner{client: client}
}

const maxTxAttempts = 3

func (t *MongoTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		session, err := t.client.StartSession()
		if err != nil {
			return err
		}

		_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			return nil, fn(sc)
		})
		session.EndSession(ctx)
		if err == nil {
			return nil
		}
		if !isTransientTxError(err) {
			return err
		}
		lastErr = err
	}
	return &services.SerializationConflictError{Attempts: maxTxAttempts, Err: lastErr}
}

func isTransientTxError(err error) bool {
	cmdErr, ok := err.(mongo.CommandError)
	if !ok {
		return false
	}
	return cmdErr.HasErrorLabel("TransientTransactionError") || cmdErr.HasErrorLabel("UnknownTransactionCommitResult")
}

// mapErr translates driver errors to the sentinels the services layer checks.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case err == mongo.ErrNoDocuments:
		return services.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return services.ErrDuplicateKey
	}
	return err
}
