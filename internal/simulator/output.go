package simulator

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/chrisdamba/tillmetrics/internal/cloudwriter"
	"github.com/chrisdamba/tillmetrics/internal/models"
	"github.com/chrisdamba/tillmetrics/internal/output"
	"github.com/chrisdamba/tillmetrics/internal/repositories/postgres"
	"github.com/chrisdamba/tillmetrics/internal/simulator/producers"
)

const (
	OrdersTopic   = output.OrdersTopic
	ProductsTopic = output.ProductsTopic
)

var ErrUnsupportedFormat = errors.New("unsupported output format")

type OutputDestination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

type ConsoleOutput struct {
	w io.Writer
}

func NewConsoleOutput(w io.Writer) *ConsoleOutput {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleOutput{w: w}
}

func (c *ConsoleOutput) WriteMessage(topic string, msg []byte) error {
	if _, err := fmt.Fprintf(c.w, "[%s] %s\n", topic, msg); err != nil {
		return fmt.Errorf("failed to write to console: %w", err)
	}
	return nil
}

func (c *ConsoleOutput) Close() error {
	if f, ok := c.w.(*os.File); ok {
		_ = f.Sync()
	}
	return nil
}

// partitionPath derives year=/month=/day= from the message's "timestamp"
// field in UTC. Messages without a timestamp are not partitioned.
func partitionPath(msg []byte) (string, error) {
	var head struct {
		Timestamp *time.Time `json:"timestamp"`
	}
	if err := json.Unmarshal(msg, &head); err != nil {
		return "", fmt.Errorf("invalid message: %w", err)
	}
	if head.Timestamp == nil {
		return "", nil
	}
	year, month, day := head.Timestamp.UTC().Date()
	return fmt.Sprintf("year=%d/month=%02d/day=%02d", year, month, day), nil
}

// cleanup removes files with extension ext left under root by an earlier run.
func cleanup(root, ext string, logger *slog.Logger) {
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == ext {
			return os.Remove(p)
		}
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("error cleaning up output files", "root", root, "ext", ext, "error", err)
	}
}

type JSONOutput struct {
	basePath string
	folder   string
	files    map[string]*os.File
}

func NewJSONOutput(basePath, folder string, logger *slog.Logger) *JSONOutput {
	j := &JSONOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*os.File),
	}
	cleanup(filepath.Join(basePath, folder), ".json", logger)
	return j
}

// Root is the directory a jsonl source reads back.
func (j *JSONOutput) Root() string {
	return filepath.Join(j.basePath, j.folder)
}

func (j *JSONOutput) WriteMessage(topic string, msg []byte) error {
	partition, err := partitionPath(msg)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(j.Root(), topic, filepath.FromSlash(partition))

	fileKey := topic + "/" + partition
	file, ok := j.files[fileKey]
	if !ok {
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return err
		}
		file, err = os.Create(filepath.Join(fullPath, "data.json"))
		if err != nil {
			return err
		}
		j.files[fileKey] = file
	}

	if _, err := file.Write(msg); err != nil {
		return err
	}
	_, err = file.WriteString("\n")
	return err
}

func (j *JSONOutput) Close() error {
	var errs []error
	for key, file := range j.files {
		if err := file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

type csvFile struct {
	file    *os.File
	writer  *csv.Writer
	headers []string
}

type CSVOutput struct {
	basePath string
	folder   string
	files    map[string]*csvFile
}

func NewCSVOutput(basePath, folder string, logger *slog.Logger) *CSVOutput {
	c := &CSVOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*csvFile),
	}
	cleanup(filepath.Join(basePath, folder), ".csv", logger)
	return c
}

func (c *CSVOutput) WriteMessage(topic string, msg []byte) error {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var event map[string]interface{}
	if err := dec.Decode(&event); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	partition, err := partitionPath(msg)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(c.basePath, c.folder, topic, filepath.FromSlash(partition))

	fileKey := topic + "/" + partition
	f, ok := c.files[fileKey]
	if !ok {
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return err
		}
		file, err := os.Create(filepath.Join(fullPath, "data.csv"))
		if err != nil {
			return err
		}
		f = &csvFile{file: file, writer: csv.NewWriter(file), headers: c.getHeaders(event)}
		c.files[fileKey] = f
		if err := f.writer.Write(f.headers); err != nil {
			return err
		}
	}

	row := make([]string, len(f.headers))
	for i, header := range f.headers {
		row[i], err = csvValue(event[header])
		if err != nil {
			return fmt.Errorf("column %s: %w", header, err)
		}
	}
	if err := f.writer.Write(row); err != nil {
		return err
	}
	f.writer.Flush()
	return f.writer.Error()
}

func (c *CSVOutput) getHeaders(event map[string]interface{}) []string {
	headers := make([]string, 0, len(event))
	for key := range event {
		headers = append(headers, key)
	}
	sort.Strings(headers)
	return headers
}

// csvValue renders scalars as text and nested values as compact JSON.
func csvValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return fmt.Sprintf("%t", val), nil
	default:
		b, err := json.Marshal(val)
		return string(b), err
	}
}

func (c *CSVOutput) Close() error {
	var errs []error
	for key, f := range c.files {
		f.writer.Flush()
		if err := f.writer.Error(); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", key, err))
		}
		if err := f.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

type CloudParquetFile struct {
	cloudWriter cloudwriter.CloudWriter
	offset      int64
}

func NewCloudParquetFile(cloudWriter cloudwriter.CloudWriter) *CloudParquetFile {
	return &CloudParquetFile{cloudWriter: cloudWriter}
}

// Open and Create return the receiver: the object exists once written.
func (c *CloudParquetFile) Open(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Create(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		c.offset = offset
	case io.SeekCurrent:
		c.offset += offset
	default:
		return 0, fmt.Errorf("seek whence %d not supported for cloud storage", whence)
	}
	return c.offset, nil
}

func (c *CloudParquetFile) Read(p []byte) (int, error) {
	return 0, fmt.Errorf("read not supported for cloud storage")
}

func (c *CloudParquetFile) Write(p []byte) (int, error) {
	n, err := c.cloudWriter.Write(p)
	c.offset += int64(n)
	return n, err
}

func (c *CloudParquetFile) Close() error {
	return c.cloudWriter.Close()
}

type ParquetOutput struct {
	basePath           string
	folder             string
	mu                 sync.Mutex
	writers            map[string]*writer.ParquetWriter
	files              map[string]source.ParquetFile
	cloudWriterFactory cloudwriter.CloudWriterFactory
	cloudBucketName    string
	logger             *slog.Logger
}

func NewParquetOutput(ctx context.Context, config *models.Config, logger *slog.Logger) (*ParquetOutput, error) {
	p := &ParquetOutput{
		basePath: config.OutputPath,
		folder:   config.OutputFolder,
		writers:  make(map[string]*writer.ParquetWriter),
		files:    make(map[string]source.ParquetFile),
		logger:   logger,
	}

	if config.OutputDestination != "" && config.OutputDestination != "local" {
		var factory cloudwriter.CloudWriterFactory
		var err error
		switch config.CloudStorage.Provider {
		case "s3":
			factory, err = cloudwriter.NewS3WriterFactory(ctx, config.CloudStorage.Region)
		default:
			return nil, fmt.Errorf("unsupported cloud storage provider: %q", config.CloudStorage.Provider)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}
		p.cloudWriterFactory = factory
		p.cloudBucketName = config.CloudStorage.BucketName
		return p, nil
	}

	cleanup(filepath.Join(p.basePath, p.folder), ".parquet", logger)
	return p, nil
}

func (p *ParquetOutput) WriteMessage(topic string, msg []byte) error {
	row, err := toRow(topic, msg)
	if err != nil {
		return err
	}
	partition, err := partitionPath(msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	writerKey := topic + "/" + partition
	pw, ok := p.writers[writerKey]
	if !ok {
		pw, err = p.createNewWriter(writerKey, topic, partition)
		if err != nil {
			return fmt.Errorf("failed to create new writer: %w", err)
		}
	}
	if err := pw.Write(row); err != nil {
		return fmt.Errorf("failed to write %s row: %w", topic, err)
	}
	return nil
}

func (p *ParquetOutput) createNewWriter(writerKey, topic, partition string) (*writer.ParquetWriter, error) {
	var fw source.ParquetFile
	if p.cloudWriterFactory != nil {
		objectPath := path.Join(p.folder, topic, partition, "data.parquet")
		cloudWriter, err := p.cloudWriterFactory.NewWriter(p.cloudBucketName, objectPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		fw = NewCloudParquetFile(cloudWriter)
	} else {
		fullPath := filepath.Join(p.basePath, p.folder, topic, filepath.FromSlash(partition))
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return nil, err
		}
		var err error
		fw, err = local.NewLocalFileWriter(filepath.Join(fullPath, "data.parquet"))
		if err != nil {
			return nil, fmt.Errorf("failed to create local file writer: %w", err)
		}
	}

	schema, err := GetSchema(topic)
	if err != nil {
		fw.Close()
		return nil, err
	}
	pw, err := writer.NewParquetWriter(fw, schema, 4)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to create ParquetWriter: %w", err)
	}

	p.writers[writerKey] = pw
	p.files[writerKey] = fw
	return pw, nil
}

func (p *ParquetOutput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for key, pw := range p.writers {
		if err := pw.WriteStop(); err != nil {
			p.logger.Error("error closing parquet writer", "key", key, "error", err)
			errs = append(errs, err)
		}
		if err := p.files[key].Close(); err != nil {
			p.logger.Error("error closing parquet file", "key", key, "error", err)
			errs = append(errs, err)
		}
	}
	p.writers = make(map[string]*writer.ParquetWriter)
	p.files = make(map[string]source.ParquetFile)
	return errors.Join(errs...)
}

// KafkaOutput keys every message by its "id" so one order always lands
// on the same partition.
type KafkaOutput struct {
	producer    *producers.SaramaProducer
	ordersTopic string
}

func NewKafkaOutput(producer *producers.SaramaProducer, ordersTopic string) *KafkaOutput {
	return &KafkaOutput{producer: producer, ordersTopic: ordersTopic}
}

func (k *KafkaOutput) WriteMessage(topic string, msg []byte) error {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(msg, &head); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	if topic == OrdersTopic && k.ordersTopic != "" {
		topic = k.ordersTopic
	}
	return k.producer.WriteKeyedMessage(topic, head.ID, msg)
}

func (k *KafkaOutput) Close() error {
	return k.producer.Close()
}

func (s *Simulator) determineOutputDestination(ctx context.Context) (OutputDestination, error) {
	format := strings.ToLower(s.Config.OutputFormat)
	switch format {
	case "", "console":
		return NewConsoleOutput(s.stdout), nil
	case "json", "csv":
		if s.Config.OutputPath == "" {
			return nil, fmt.Errorf("output_path is required for %s output", format)
		}
		if format == "json" {
			return NewJSONOutput(s.Config.OutputPath, s.Config.OutputFolder, s.logger), nil
		}
		return NewCSVOutput(s.Config.OutputPath, s.Config.OutputFolder, s.logger), nil
	case "parquet":
		onDisk := s.Config.OutputDestination == "" || s.Config.OutputDestination == "local"
		if onDisk && s.Config.OutputPath == "" {
			return nil, fmt.Errorf("output_path is required for parquet output")
		}
		return NewParquetOutput(ctx, s.Config, s.logger)
	case "kafka":
		producer, err := producers.NewSaramaProducer(s.Config, s.logger)
		if err != nil {
			return nil, err
		}
		return NewKafkaOutput(producer, s.Config.KafkaTopic), nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, s.Config.Database)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		out := output.NewPostgresOutput(ctx,
			postgres.NewOrderRepository(pool),
			postgres.NewProductRepository(pool),
			s.logger,
		).OnClose(pool.Close)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s.Config.OutputFormat)
	}
}
