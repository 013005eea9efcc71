package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "https://s3.local:9000/reports/scans/1/lighthouse.json",
		ObjectURL("https", "s3.local:9000", "reports", "scans/1/lighthouse.json"))
	assert.Equal(t, "http://minio/b/k", ObjectURL("", "minio", "b", "k"))
}
