package spec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/version"
)

// Format is a document encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the format from a path or URL extension; anything unknown is JSON
func FormatOf(src string) Format {
	p := src
	if u, err := url.Parse(src); err == nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Load reads a document from a local path or any source go-getter
// understands (https, git, s3, gcs ...) and checks its version constraint
func Load(ctx context.Context, src string, log *zap.SugaredLogger) (*Document, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	data, err := read(ctx, src, log)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data, FormatOf(src))
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", src)
	}
	doc.Source = src

	if err := CheckRequires(doc.Requires, version.Get().Version); err != nil {
		return nil, err
	}

	log.Debugw("Spec loaded", "source", src, "items", len(doc.Items))
	return doc, nil
}

// Parse decodes a document. YAML and TOML are converted to JSON first so
// every format goes through the same item decoding.
func Parse(data []byte, format Format) (*Document, error) {
	var err error
	switch format {
	case FormatYAML:
		data, err = yamlToJSON(data)
	case FormatTOML:
		data, err = tomlToJSON(data)
	}
	if err != nil {
		return nil, err
	}

	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.WrapConfiguration(err, fmt.Sprintf("invalid %s document", format))
	}
	for i, it := range doc.Items {
		if it == nil {
			return nil, errors.NewConfigurationError("item #%d is null", i)
		}
	}
	return &doc, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, errors.WrapConfiguration(err, "invalid yaml document")
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapConfiguration(err, "yaml document has no JSON form")
	}
	return out, nil
}

func tomlToJSON(data []byte) ([]byte, error) {
	var v map[string]interface{}
	if _, err := toml.Decode(string(data), &v); err != nil {
		return nil, errors.WrapConfiguration(err, "invalid toml document")
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapConfiguration(err, "toml document has no JSON form")
	}
	return out, nil
}

// CheckRequires fails when the running version does not satisfy constraint
func CheckRequires(constraint, running string) error {
	if constraint == "" {
		return nil
	}
	ok, err := version.Satisfies(running, constraint)
	if err != nil {
		return err
	}
	if !ok {
		return errors.WithHint(
			errors.NewConfigurationError("spec requires chronicle %s, this is %s", constraint, running),
			"upgrade chronicle or relax the requires field")
	}
	return nil
}

// IsRemote reports whether src names a remote source rather than a local file
func IsRemote(src string) bool {
	_, remote, err := detect(src)
	return err == nil && remote
}

func detect(src string) (string, bool, error) {
	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}
	detected, err := getter.Detect(src, pwd, getter.Detectors)
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to detect source type of %s", src)
	}
	u, err := url.Parse(detected)
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to parse detected URL %s", detected)
	}
	return detected, u.Scheme != "" && u.Scheme != "file", nil
}

func read(ctx context.Context, src string, log *zap.SugaredLogger) ([]byte, error) {
	detected, remote, err := detect(src)
	if err != nil {
		return nil, errors.WrapConfiguration(err, "spec source")
	}
	if !remote {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, errors.WrapConfiguration(err, fmt.Sprintf("cannot read spec %s", src))
		}
		return data, nil
	}

	tempDir, err := os.MkdirTemp("", "chronicle-spec-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp directory")
	}
	defer os.RemoveAll(tempDir)

	dst := filepath.Join(tempDir, "spec."+string(FormatOf(src)))
	client := &getter.Client{
		Ctx:     ctx,
		Src:     detected,
		Dst:     dst,
		Mode:    getter.ClientModeFile,
		Getters: getter.Getters,
	}
	log.Infow("Fetching spec", "source", src, "detected", detected)
	if err := client.Get(); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch spec %s", src)
	}
	return os.ReadFile(dst)
}
