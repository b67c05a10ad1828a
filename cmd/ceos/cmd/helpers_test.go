package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/ceoskit/pkg/config"
	"github.com/ssargent/ceoskit/pkg/di"
	"github.com/ssargent/ceoskit/pkg/leader"
	"github.com/ssargent/ceoskit/pkg/source"
)

// testEnv is a temporary config file and data directory
type testEnv struct {
	dir        string
	configPath string
	container  *di.Container
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "ceos_cmd_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	c := config.DefaultConfig()
	c.DataDir = filepath.Join(tmpDir, "data")
	c.Security.APIKey = "test-key"
	c.Logging.Level = "error"
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, config.SaveConfig(c, configPath))

	return &testEnv{dir: tmpDir, configPath: configPath, container: di.NewContainer()}
}

// path returns a file path inside the environment
func (e *testEnv) path(name string) string {
	return filepath.Join(e.dir, name)
}

// run executes the root command with args and the environment's config
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	SetContainer(e.container)
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	if !hasFlag(args, "--config") {
		args = append(args, "--config", e.configPath)
	}
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func hasFlag(args []string, name string) bool {
	for _, a := range args {
		if a == name {
			return true
		}
	}
	return false
}

// resetFlags restores every flag to its default between runs
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

var unknownKey = leader.Key{Subtype1: 18, Type: 40, Subtype2: 18, Subtype3: 20}

// sampleLeaderFile returns a descriptor, a data set summary, processing
// parameters and a record type the catalog does not know
func sampleLeaderFile(t *testing.T) []byte {
	t.Helper()

	fd := leader.FileDescriptor.New()
	require.NoError(t, fd.SetText("ascii_flag", "A"))
	require.NoError(t, fd.SetInt("n_dataset", 1))

	dss := leader.DataSetSummary.New()
	require.NoError(t, dss.SetText("mission_id", "RSAT-1"))
	require.NoError(t, dss.SetFloat("pro_lat", 45.5))

	pp := leader.ProcessingParameters.New()
	beam := leader.BeamInformationRecord.New()
	require.NoError(t, beam.SetText("beam_type", "W1"))
	require.NoError(t, beam.SetFloat("prf", 1256.98))
	require.NoError(t, pp.SetSub("beam_info", 0, beam))

	unknown := &leader.Record{
		Header: leader.Header{Sequence: 4, Key: unknownKey},
		Raw:    []byte("platform position data"),
	}

	var buf bytes.Buffer
	for _, rec := range []*leader.Record{
		leader.NewRecord(1, leader.FileDescriptorKey, fd),
		leader.NewRecord(2, leader.DataSetSummaryKey, dss),
		leader.NewRecord(3, leader.ProcessingParametersKey, pp),
		unknown,
	} {
		b, err := rec.MarshalBinary()
		require.NoError(t, err)
		buf.Write(b)
	}
	return buf.Bytes()
}

// malformedLeaderFile returns a file descriptor whose n_dataset field holds
// letters
func malformedLeaderFile(t *testing.T) []byte {
	t.Helper()
	data := sampleLeaderFile(t)[:leader.HeaderSize+leader.FileDescriptor.Size()]
	for _, f := range leader.Describe(leader.FileDescriptor) {
		if f.Name == "n_dataset" {
			copy(data[leader.HeaderSize+f.Offset:], "ab")
			return data
		}
	}
	t.Fatal("n_dataset not found")
	return nil
}

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

// mockS3Client serves objects from memory
type mockS3Client struct {
	s3iface.S3API

	mutex   sync.Mutex
	objects map[string][]byte
}

func newMockS3Client() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	data, ok := m.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "The specified key does not exist.", nil)
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (m *mockS3Client) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.objects[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

// enableS3 turns S3 on in the environment's config and routes it to client
func (e *testEnv) enableS3(t *testing.T, client s3iface.S3API) {
	t.Helper()
	c, err := config.LoadConfig(e.configPath)
	require.NoError(t, err)
	c.S3.Enabled = true
	require.NoError(t, config.SaveConfig(c, e.configPath))

	e.container.SetS3ClientFactory(func(source.S3Config) (s3iface.S3API, error) {
		return client, nil
	})
}
