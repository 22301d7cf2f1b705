package s3

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medcenter_backend/config"
)

func TestObjectKey(t *testing.T) {
	k := ObjectKey("/lab-reports/12/", "CBC Scan.PDF")
	assert.True(t, strings.HasPrefix(k, "lab-reports/12/"), k)
	assert.True(t, strings.HasSuffix(k, ".pdf"), k)

	assert.NotEqual(t, ObjectKey("files", "a.png"), ObjectKey("files", "a.png"))
	assert.False(t, strings.Contains(ObjectKey("files", "noext"), "."))
}

func TestNew(t *testing.T) {
	_, err := New(config.S3Config{})
	assert.ErrorIs(t, err, ErrBucketRequired)

	c, err := New(config.S3Config{Endpoint: "http://minio:9000/", Region: "us-east-1", Bucket: "lab", AccessKeyID: "a", SecretAccessKey: "b"})
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/lab/files/x.pdf", c.ObjectURL("files/x.pdf"))
	assert.Equal(t, defaultPresignTTL, c.ttl)
}

func TestPresignTTL(t *testing.T) {
	assert.Equal(t, 90*time.Second, presignTTL(90))
	assert.Equal(t, defaultPresignTTL, presignTTL(0))
}
