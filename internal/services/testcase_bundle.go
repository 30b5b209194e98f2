package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/soliton-oj/adminserver/internal/mq"
	"github.com/soliton-oj/adminserver/internal/storage"
	"github.com/soliton-oj/adminserver/types"
)

const (
	bundleContentType = "application/json"
	exportTimeout     = 10 * time.Second
)

// BundleExporter hands the current test-case set of a question to
// downstream consumers: the bundle goes to object storage and an event
// goes to the broker. Both sinks are optional and best-effort; the
// database stays authoritative and export failures are only logged.
type BundleExporter struct {
	storage   storage.ObjectStorage
	publisher mq.Publisher
	channel   string
	logger    *slog.Logger
}

// NewBundleExporter constructs an exporter. objects and publisher may be
// nil to disable the corresponding sink.
func NewBundleExporter(objects storage.ObjectStorage, publisher mq.Publisher, channel string, logger *slog.Logger) *BundleExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &BundleExporter{
		storage:   objects,
		publisher: publisher,
		channel:   channel,
		logger:    logger,
	}
}

// BundleObjectKey returns the object key of a question's bundle.
func BundleObjectKey(questionID string) string {
	return fmt.Sprintf("questions/%s/testcases.json", questionID)
}

// BuildTestcaseBundle snapshots the question's test cases and returns the
// bundle together with its JSON encoding.
func BuildTestcaseBundle(question types.Question) (types.TestcaseBundle, []byte, error) {
	testCases := question.TestCases
	if testCases == nil {
		testCases = []types.TestCase{}
	}

	canonical, err := json.Marshal(testCases)
	if err != nil {
		return types.TestcaseBundle{}, nil, err
	}
	sum := sha256.Sum256(canonical)

	bundle := types.TestcaseBundle{
		QuestionID: question.ID,
		Language:   question.Language,
		SHA256:     hex.EncodeToString(sum[:]),
		TestCases:  testCases,
	}
	data, err := json.Marshal(bundle)
	if err != nil {
		return types.TestcaseBundle{}, nil, err
	}
	return bundle, data, nil
}

// QuestionSaved exports the bundle and announces it.
func (e *BundleExporter) QuestionSaved(ctx context.Context, question types.Question) {
	if e.storage == nil && e.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), exportTimeout)
	defer cancel()

	bundle, data, err := BuildTestcaseBundle(question)
	if err != nil {
		e.logger.Error("build testcase bundle", "question_id", question.ID, "error", err)
		return
	}

	event := types.QuestionEvent{
		Type:       types.QuestionEventSaved,
		QuestionID: question.ID,
		SHA256:     bundle.SHA256,
	}

	if e.storage != nil {
		key := BundleObjectKey(question.ID)
		if err := e.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), bundleContentType); err != nil {
			e.logger.Error("upload testcase bundle", "question_id", question.ID, "bucket", e.storage.Bucket(), "key", key, "error", err)
		} else {
			event.ObjectKey = key
		}
	}

	e.publish(ctx, event)
}

// QuestionDeleted removes the bundle and announces the deletion.
func (e *BundleExporter) QuestionDeleted(ctx context.Context, id string) {
	if e.storage == nil && e.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), exportTimeout)
	defer cancel()

	if e.storage != nil {
		key := BundleObjectKey(id)
		if err := e.storage.Delete(ctx, key); err != nil {
			e.logger.Error("delete testcase bundle", "question_id", id, "key", key, "error", err)
		}
	}

	e.publish(ctx, types.QuestionEvent{Type: types.QuestionEventDeleted, QuestionID: id})
}

func (e *BundleExporter) publish(ctx context.Context, event types.QuestionEvent) {
	if e.publisher == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		e.logger.Error("encode question event", "question_id", event.QuestionID, "error", err)
		return
	}
	attrs := map[string]string{"type": event.Type, "questionId": event.QuestionID}
	if _, err := e.publisher.Publish(ctx, e.channel, data, attrs); err != nil {
		e.logger.Error("publish question event", "type", event.Type, "question_id", event.QuestionID, "channel", e.channel, "error", err)
	}
}
