package integration

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/coursework-service/internal/models"
)

type fakeStore struct {
	exists   bool
	made     int
	objects  map[string][]byte
	putErr   error
	checkErr error
}

func (s *fakeStore) BucketExists(context.Context, string) (bool, error) {
	return s.exists, s.checkErr
}

func (s *fakeStore) MakeBucket(context.Context, string, minio.MakeBucketOptions) error {
	s.made++
	s.exists = true
	return nil
}

func (s *fakeStore) PutObject(_ context.Context, _, name string, r io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	if s.putErr != nil {
		return minio.UploadInfo{}, s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[name] = data
	return minio.UploadInfo{Key: name, ETag: "etag"}, nil
}

func TestArchiveExercise(t *testing.T) {
	store := &fakeStore{}
	archive := &minioArchive{client: store, bucket: "submissions", logger: zerolog.Nop()}

	snap := &models.CodeSnapshot{
		SubmissionID:  "s1",
		StudentID:     "u1",
		AssignmentID:  "a1",
		ExerciseIndex: 2,
		Try:           3,
		Code:          []models.CodeFile{{Name: "Main.java", Code: "class Main {}"}},
	}

	key, err := archive.ArchiveExercise(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, "a1/u1/exercise-2/try-0003.json", key)

	var stored models.CodeSnapshot
	require.NoError(t, json.Unmarshal(store.objects[key], &stored))
	assert.Equal(t, snap.Code, stored.Code)

	_, err = archive.ArchiveExercise(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, 1, store.made)
}

func TestArchiveExerciseErrors(t *testing.T) {
	archive := &minioArchive{client: &fakeStore{checkErr: errors.New("dial tcp")}, bucket: "b", logger: zerolog.Nop()}
	_, err := archive.ArchiveExercise(context.Background(), &models.CodeSnapshot{})
	assert.ErrorContains(t, err, "failed to check bucket")

	archive = &minioArchive{client: &fakeStore{exists: true, putErr: errors.New("disk full")}, bucket: "b", logger: zerolog.Nop()}
	_, err = archive.ArchiveExercise(context.Background(), &models.CodeSnapshot{})
	assert.ErrorContains(t, err, "failed to upload snapshot")
}
