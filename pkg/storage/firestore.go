package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"github.com/wattbill/wattbill/pkg/log"
	"github.com/wattbill/wattbill/pkg/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// solarSampleDedupWindow is the minimum spacing between persisted solar
// samples. A concurrent duplicate insert inside the window is acceptable.
const solarSampleDedupWindow = 5 * time.Minute

// readingDocIDFormat is a fixed-width RFC3339 variant so document IDs sort
// lexicographically even at sub-second resolution.
const readingDocIDFormat = "2006-01-02T15:04:05.000000000Z"

// FirestoreProvider implements the Database interface using Google Cloud
// Firestore. Devices live in a top-level collection so upload tokens can be
// resolved without knowing the owner; readings nest under their device and
// settings/solar history nest under the user.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// Project ID may be empty if inferred from the environment.
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) devices() *firestore.CollectionRef {
	return f.client.Collection("devices")
}

func (f *FirestoreProvider) userCollection(userID, name string) (*firestore.CollectionRef, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}
	return f.client.Collection("users").Doc(userID).Collection(name), nil
}

// CreateDevice stores a device document keyed by its ID. The owner and token
// are duplicated as queryable fields beside the JSON blob.
func (f *FirestoreProvider) CreateDevice(ctx context.Context, device types.Device) error {
	jsonBytes, err := json.Marshal(device)
	if err != nil {
		return fmt.Errorf("failed to marshal device: %w", err)
	}
	_, err = f.devices().Doc(device.ID).Set(ctx, map[string]interface{}{
		"json":   string(jsonBytes),
		"userID": device.UserID,
		"token":  device.Token,
	})
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

func decodeDevice(doc *firestore.DocumentSnapshot) (types.Device, error) {
	val, err := doc.DataAt("json")
	if err != nil {
		return types.Device{}, fmt.Errorf("device document missing 'json' field: %w", err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		return types.Device{}, fmt.Errorf("device 'json' field is not a string")
	}
	var d types.Device
	if err := json.Unmarshal([]byte(jsonStr), &d); err != nil {
		return types.Device{}, fmt.Errorf("failed to unmarshal device json: %w", err)
	}
	return d, nil
}

// GetDevice fetches a device and verifies ownership. A device owned by a
// different user is reported as not found, not as forbidden.
func (f *FirestoreProvider) GetDevice(ctx context.Context, userID, deviceID string) (types.Device, error) {
	doc, err := f.devices().Doc(deviceID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Device{}, ErrDeviceNotFound
		}
		return types.Device{}, fmt.Errorf("failed to fetch device: %w", err)
	}
	d, err := decodeDevice(doc)
	if err != nil {
		return types.Device{}, err
	}
	if d.UserID != userID {
		return types.Device{}, ErrDeviceNotFound
	}
	return d, nil
}

// GetDeviceByToken resolves an upload token to its device.
func (f *FirestoreProvider) GetDeviceByToken(ctx context.Context, token string) (types.Device, error) {
	iter := f.devices().Where("token", "==", token).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return types.Device{}, ErrDeviceNotFound
	}
	if err != nil {
		return types.Device{}, fmt.Errorf("failed to query device by token: %w", err)
	}
	return decodeDevice(doc)
}

// ListDevices returns all devices owned by the user.
func (f *FirestoreProvider) ListDevices(ctx context.Context, userID string) ([]types.Device, error) {
	iter := f.devices().Where("userID", "==", userID).Documents(ctx)
	defer iter.Stop()

	var devices []types.Device
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list devices: %w", err)
		}
		d, err := decodeDevice(doc)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "skipping undecodable device", slog.String("doc", doc.Ref.ID), slog.Any("error", err))
			continue
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// DeleteDevice removes a device after verifying ownership. Its readings are
// left behind; they are unreachable once the device document is gone.
func (f *FirestoreProvider) DeleteDevice(ctx context.Context, userID, deviceID string) error {
	if _, err := f.GetDevice(ctx, userID, deviceID); err != nil {
		return err
	}
	if _, err := f.devices().Doc(deviceID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	return nil
}

// GetSettings retrieves the user's configuration from the "config/settings"
// document. Missing settings return the zero value, not an error.
func (f *FirestoreProvider) GetSettings(ctx context.Context, userID string) (types.Settings, error) {
	coll, err := f.userCollection(userID, "config")
	if err != nil {
		return types.Settings{}, err
	}
	doc, err := coll.Doc("settings").Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Settings{}, nil
		}
		return types.Settings{}, fmt.Errorf("failed to fetch settings doc: %w", err)
	}

	val, err := doc.DataAt("json")
	if err != nil {
		return types.Settings{}, fmt.Errorf("settings document missing 'json' field: %w", err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		return types.Settings{}, fmt.Errorf("settings 'json' field is not a string")
	}

	var s types.Settings
	if err := json.Unmarshal([]byte(jsonStr), &s); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal settings json", slog.String("userID", userID), slog.Any("error", err))
		return types.Settings{}, fmt.Errorf("failed to unmarshal settings json: %w", err)
	}
	return s, nil
}

// SetSettings saves the user's configuration as a JSON string for
// portability.
func (f *FirestoreProvider) SetSettings(ctx context.Context, userID string, settings types.Settings) error {
	jsonBytes, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	coll, err := f.userCollection(userID, "config")
	if err != nil {
		return err
	}
	_, err = coll.Doc("settings").Set(ctx, map[string]interface{}{
		"json": string(jsonBytes),
	})
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// InsertReading appends a telemetry sample under its device. The document ID
// is the fixed-width timestamp for lexicographic range queries.
func (f *FirestoreProvider) InsertReading(ctx context.Context, deviceID string, sample types.MeterSample) error {
	jsonBytes, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}
	docID := sample.Timestamp.UTC().Format(readingDocIDFormat)
	_, err = f.devices().Doc(deviceID).Collection("readings").Doc(docID).Set(ctx, map[string]interface{}{
		"json":      string(jsonBytes),
		"timestamp": sample.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

func decodeSample(doc *firestore.DocumentSnapshot) (types.MeterSample, error) {
	val, err := doc.DataAt("json")
	if err != nil {
		return types.MeterSample{}, fmt.Errorf("reading document missing 'json' field: %w", err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		return types.MeterSample{}, fmt.Errorf("reading 'json' field is not a string")
	}
	var s types.MeterSample
	if err := json.Unmarshal([]byte(jsonStr), &s); err != nil {
		return types.MeterSample{}, fmt.Errorf("failed to unmarshal reading json: %w", err)
	}
	return s, nil
}

// GetReadings retrieves the most recent limit samples within [start, end],
// returned ascending. Uses document ID range queries so only the requested
// window is read.
func (f *FirestoreProvider) GetReadings(ctx context.Context, deviceID string, start, end time.Time, limit int) ([]types.MeterSample, error) {
	coll := f.devices().Doc(deviceID).Collection("readings")
	q := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(start.UTC().Format(readingDocIDFormat))).
		Where(firestore.DocumentID, "<=", coll.Doc(end.UTC().Format(readingDocIDFormat))).
		OrderBy(firestore.DocumentID, firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	var samples []types.MeterSample
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch readings: %w", err)
		}
		s, err := decodeSample(doc)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "skipping undecodable reading", slog.String("doc", doc.Ref.ID), slog.Any("error", err))
			continue
		}
		samples = append(samples, s)
	}

	// query is newest-first so the limit keeps the latest; flip to ascending
	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
	return samples, nil
}

// GetLatestReading returns the single newest sample for a device.
func (f *FirestoreProvider) GetLatestReading(ctx context.Context, deviceID string) (types.MeterSample, error) {
	coll := f.devices().Doc(deviceID).Collection("readings")
	iter := coll.OrderBy(firestore.DocumentID, firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return types.MeterSample{}, ErrNoReadings
	}
	if err != nil {
		return types.MeterSample{}, fmt.Errorf("failed to fetch latest reading: %w", err)
	}
	return decodeSample(doc)
}

// InsertSolarSample persists a solar history sample unless one already exists
// within the dedup window. The read-then-write race with a concurrent status
// request can produce a duplicate; that is tolerated, not corrected.
func (f *FirestoreProvider) InsertSolarSample(ctx context.Context, userID string, sample types.SolarSample) error {
	coll, err := f.userCollection(userID, "solar_samples")
	if err != nil {
		return err
	}

	iter := coll.OrderBy(firestore.DocumentID, firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()
	doc, err := iter.Next()
	if err != nil && err != iterator.Done {
		return fmt.Errorf("failed to check latest solar sample: %w", err)
	}
	if err == nil {
		latest, decodeErr := decodeSolarSample(doc)
		if decodeErr == nil && sample.Timestamp.Sub(latest.Timestamp) < solarSampleDedupWindow {
			return nil
		}
	}

	jsonBytes, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal solar sample: %w", err)
	}
	docID := sample.Timestamp.UTC().Format(time.RFC3339)
	_, err = coll.Doc(docID).Set(ctx, map[string]interface{}{
		"json":      string(jsonBytes),
		"timestamp": sample.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to insert solar sample: %w", err)
	}
	return nil
}

func decodeSolarSample(doc *firestore.DocumentSnapshot) (types.SolarSample, error) {
	val, err := doc.DataAt("json")
	if err != nil {
		return types.SolarSample{}, fmt.Errorf("solar sample document missing 'json' field: %w", err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		return types.SolarSample{}, fmt.Errorf("solar sample 'json' field is not a string")
	}
	var s types.SolarSample
	if err := json.Unmarshal([]byte(jsonStr), &s); err != nil {
		return types.SolarSample{}, fmt.Errorf("failed to unmarshal solar sample json: %w", err)
	}
	return s, nil
}

// GetSolarHistory retrieves the most recent limit samples within [start,
// end], returned ascending.
func (f *FirestoreProvider) GetSolarHistory(ctx context.Context, userID string, start, end time.Time, limit int) ([]types.SolarSample, error) {
	coll, err := f.userCollection(userID, "solar_samples")
	if err != nil {
		return nil, err
	}
	q := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(start.UTC().Format(time.RFC3339))).
		Where(firestore.DocumentID, "<=", coll.Doc(end.UTC().Format(time.RFC3339))).
		OrderBy(firestore.DocumentID, firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	var samples []types.SolarSample
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch solar history: %w", err)
		}
		s, err := decodeSolarSample(doc)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "skipping undecodable solar sample", slog.String("doc", doc.Ref.ID), slog.Any("error", err))
			continue
		}
		samples = append(samples, s)
	}

	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
	return samples, nil
}
