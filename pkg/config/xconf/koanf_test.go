package xconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xclog/pkg/observability/xrotate"
)

const testYAML = `
service: billing
log:
  level: debug
  rotation:
    path: /var/log/billing.log
    max_bytes: "1048576"
    backup_count: 5
    use_gzip: true
    keep_file_open: false
    file_mode: "0640"
    lock_retry:
      attempts: 10
      delay: 25ms
    timed:
      when: midnight
      at_time: "02:00"
`

const testJSON = `{
  "service": "billing",
  "log": {
    "level": "debug",
    "rotation": {
      "path": "/var/log/billing.log",
      "max_bytes": 1048576,
      "backup_count": 5,
      "use_gzip": true
    }
  }
}`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		format  Format
	}{
		{"YAML", "log.yaml", testYAML, FormatYAML},
		{"YML扩展名", "log.YML", testYAML, FormatYAML},
		{"JSON", "log.json", testJSON, FormatJSON},
		{"空文件", "empty.yaml", "", FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, tt.file, tt.content)
			cfg, err := New(path)
			require.NoError(t, err)
			assert.Equal(t, path, cfg.Path())
			assert.Equal(t, tt.format, cfg.Format())
			if tt.content != "" {
				assert.Equal(t, "billing", cfg.Client().String("service"))
			}
		})
	}
}

func TestNewRelativePath(t *testing.T) {
	path := writeTemp(t, "log.yaml", testYAML)
	wd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := filepath.Rel(wd, path)
	require.NoError(t, err)

	cfg, err := New(rel)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path())
}

func TestNewErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"空路径", "", ErrEmptyPath},
		{"不支持的扩展名", writeTemp(t, "log.toml", "a = 1"), ErrUnsupportedFormat},
		{"文件不存在", filepath.Join(dir, "missing.yaml"), ErrLoadFailed},
		{"YAML语法错误", writeTemp(t, "bad.yaml", "a: [1, 2"), ErrParseFailed},
		{"JSON语法错误", writeTemp(t, "bad.json", "{"), ErrParseFailed},
		{"空字节", "log\x00.yaml", ErrLoadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := New(tt.path)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, cfg)
		})
	}
}

func TestNewFromBytes(t *testing.T) {
	cfg, err := NewFromBytes([]byte(testJSON), FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path())
	assert.Equal(t, "debug", cfg.Client().String("log.level"))

	empty, err := NewFromBytes(nil, FormatYAML)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, empty.Unmarshal("", &out))
	assert.Empty(t, out)

	_, err = NewFromBytes([]byte("a: 1"), Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeRotationConfig(t *testing.T) {
	cfg, err := NewFromBytes([]byte(testYAML), FormatYAML)
	require.NoError(t, err)

	rc, err := Decode[xrotate.Config](cfg, "log.rotation")
	require.NoError(t, err)

	assert.Equal(t, "/var/log/billing.log", rc.Path)
	assert.Equal(t, int64(1<<20), rc.MaxBytes, "字符串弱类型转换为整数")
	assert.Equal(t, 5, rc.BackupCount)
	assert.True(t, rc.UseGzip)
	require.NotNil(t, rc.KeepFileOpen)
	assert.False(t, *rc.KeepFileOpen)
	assert.Nil(t, rc.KeepLockFileOpen, "未配置的指针字段保持 nil")
	assert.Equal(t, "0640", rc.FileMode)
	assert.Equal(t, uint(10), rc.LockRetry.Attempts)
	assert.Equal(t, 25*time.Millisecond, rc.LockRetry.Delay)
	require.NotNil(t, rc.Timed)
	assert.Equal(t, "midnight", rc.Timed.When)
	assert.Equal(t, "02:00", rc.Timed.AtTime)
	assert.True(t, rc.IsTimed())

	_, err = rc.Options()
	require.NoError(t, err)
}

func TestDecodeRequired(t *testing.T) {
	cfg, err := NewFromBytes([]byte(testJSON), FormatJSON)
	require.NoError(t, err)

	rc, err := DecodeRequired[xrotate.Config](cfg, "log.rotation")
	require.NoError(t, err)
	assert.Equal(t, 5, rc.BackupCount)
	assert.False(t, rc.IsTimed())

	_, err = DecodeRequired[xrotate.Config](cfg, "log.missing")
	assert.ErrorIs(t, err, ErrMissingSection)
}

func TestUnmarshalTypeMismatch(t *testing.T) {
	cfg, err := NewFromBytes([]byte("backup_count: many\n"), FormatYAML)
	require.NoError(t, err)

	_, err = Decode[xrotate.Config](cfg, "")
	assert.ErrorIs(t, err, ErrUnmarshalFailed)
}

func TestMustUnmarshal(t *testing.T) {
	cfg, err := NewFromBytes([]byte("backup_count: many\n"), FormatYAML)
	require.NoError(t, err)

	var rc xrotate.Config
	assert.Panics(t, func() { MustUnmarshal(cfg, "", &rc) })

	good, err := NewFromBytes([]byte("backup_count: 3\n"), FormatYAML)
	require.NoError(t, err)
	assert.NotPanics(t, func() { MustUnmarshal(good, "", &rc) })
	assert.Equal(t, 3, rc.BackupCount)
}

func TestOptions(t *testing.T) {
	cfg, err := NewFromBytes([]byte(`{"log": {"rotation": {"lines": 7}}}`), FormatJSON,
		WithDelim("/"), WithTag("json"), nil)
	require.NoError(t, err)

	assert.True(t, cfg.Has("log/rotation"))
	assert.False(t, cfg.Has("log.rotation"))

	var out struct {
		Lines int `json:"lines"`
	}
	require.NoError(t, cfg.Unmarshal("log/rotation", &out))
	assert.Equal(t, 7, out.Lines)

	// 空值不覆盖默认
	o := applyOptions([]Option{WithDelim(""), WithTag("")})
	assert.Equal(t, ".", o.Delim)
	assert.Equal(t, "koanf", o.Tag)
}

func FuzzNewFromBytes(f *testing.F) {
	f.Add([]byte(testYAML), true)
	f.Add([]byte(testJSON), false)
	f.Add([]byte("max_bytes: -1"), true)

	f.Fuzz(func(t *testing.T, data []byte, yaml bool) {
		format := FormatJSON
		if yaml {
			format = FormatYAML
		}
		cfg, err := NewFromBytes(data, format)
		if err != nil {
			return
		}
		// 任意内容都不能让反序列化 panic
		_, _ = Decode[xrotate.Config](cfg, "")
	})
}
