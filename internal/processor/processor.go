package processor

import (
	"fmt"
	"strconv"
	"strings"

	"csvrows/internal/config"
	"csvrows/internal/logging"
	"csvrows/internal/rowstream"
	"csvrows/internal/transform"
	"csvrows/internal/util"

	"github.com/Knetic/govaluate"
	"github.com/zeebo/xxh3"
)

// Processor turns the rows of a delimited file into output records.
// This allows mocking the processor implementation in tests.
type Processor interface {
	Process(path string) ([]map[string]interface{}, error)
	Subscribe(o rowstream.Observer)
	OnProgress(fn rowstream.ProgressFunc)
}

// expressionEvaluator is the part of govaluate used for filtering.
type expressionEvaluator interface {
	Evaluate(parameters map[string]interface{}) (interface{}, error)
}

// processorImpl builds records from rows, filters them, applies mappings and deduplicates.
type processorImpl struct {
	parser   *rowstream.Parser
	source   config.SourceConfig
	filter   expressionEvaluator
	mappings []config.MappingRule
	dedup    *config.DedupConfig

	runID       string
	runIDColumn string
}

// NewProcessor creates a Processor for cfg. runID is stamped into records when
// cfg.Destination.RunIDColumn is set.
func NewProcessor(cfg *config.Config, runID string) (Processor, error) {
	p := &processorImpl{
		// Header rows and filtered rows come back as nil records and are dropped.
		parser:      rowstream.NewParser(true),
		source:      cfg.Source,
		mappings:    cfg.Mappings,
		dedup:       cfg.Dedup,
		runID:       runID,
		runIDColumn: cfg.Destination.RunIDColumn,
	}
	if p.source.ColumnPrefix == "" {
		p.source.ColumnPrefix = config.DefaultColumnPrefix
	}
	if cfg.Filter != "" {
		expr, err := govaluate.NewEvaluableExpression(cfg.Filter)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression '%s': %w", cfg.Filter, err)
		}
		p.filter = expr
	}
	return p, nil
}

// Subscribe registers an observer on the underlying row parser.
func (p *processorImpl) Subscribe(o rowstream.Observer) {
	p.parser.Subscribe(o)
}

// OnProgress registers a progress callback on the underlying row parser.
func (p *processorImpl) OnProgress(fn rowstream.ProgressFunc) {
	p.parser.OnProgress(fn)
}

// Process reads path and returns its records in line order.
// A malformed line, a filter failure or a mapping failure aborts the whole run.
func (p *processorImpl) Process(path string) ([]map[string]interface{}, error) {
	b := &recordBuilder{proc: p}

	if p.dedup == nil || len(p.dedup.Keys) == 0 {
		logging.Logf(logging.Debug, "Processor: collecting records from %s", path)
		return rowstream.Map(p.parser, path, b.build)
	}

	logging.Logf(logging.Debug, "Processor: collecting records from %s, deduplicating on %v (strategy %s)", path, p.dedup.Keys, p.dedup.Strategy)
	idx, err := rowstream.Fold(p.parser, path, newDedupIndex(p.dedup), func(idx *dedupIndex, row rowstream.Row, index int) (*dedupIndex, error) {
		rec, err := b.build(row, index)
		if err != nil || rec == nil {
			return idx, err
		}
		idx.add(rec)
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	if idx.duplicates > 0 {
		logging.Logf(logging.Info, "Processor: deduplication dropped %d duplicate records (%d unique, %d replaced).", idx.duplicates, len(idx.entries), idx.replaced)
	}
	return idx.records(), nil
}

// recordBuilder holds the per-call header; a Processor itself keeps no per-call state.
type recordBuilder struct {
	proc   *processorImpl
	header []string
}

// build converts one row into a record. It returns a nil record for the header row and
// for rows rejected by the filter.
func (b *recordBuilder) build(row rowstream.Row, index int) (map[string]interface{}, error) {
	p := b.proc
	if p.source.Header && index == 0 {
		b.header = make([]string, len(row))
		for i, name := range row {
			b.header[i] = strings.TrimSpace(name)
		}
		logging.Logf(logging.Debug, "Processor: header columns %v", b.header)
		return nil, nil
	}

	rec := make(map[string]interface{}, len(row))
	for i, value := range row {
		rec[b.columnName(i)] = value
	}
	for i := len(row); i < len(b.header); i++ {
		if b.header[i] != "" {
			rec[b.header[i]] = ""
		}
	}

	if p.filter != nil {
		keep, err := p.evaluateFilter(rec)
		if err != nil {
			return nil, fmt.Errorf("filter failed on line %d: %w", index, err)
		}
		if !keep {
			logging.Logf(logging.Debug, "Processor: line %d skipped by filter", index)
			return nil, nil
		}
	}

	out, err := p.applyMappings(rec)
	if err != nil {
		return nil, fmt.Errorf("mapping failed on line %d: %w", index, err)
	}
	if p.runIDColumn != "" {
		out[p.runIDColumn] = p.runID
	}
	logging.Logf(logging.Debug, "Processor: line %d -> %v", index, util.MaskSensitiveData(out))
	return out, nil
}

// columnName returns the header name for column i, or prefix + 1-based position.
func (b *recordBuilder) columnName(i int) string {
	if i < len(b.header) && b.header[i] != "" {
		return b.header[i]
	}
	return b.proc.source.ColumnPrefix + strconv.Itoa(i+1)
}

// evaluateFilter runs the filter expression; numeric and boolean looking values are
// passed as numbers and booleans so comparisons like "amount > 10" work.
func (p *processorImpl) evaluateFilter(rec map[string]interface{}) (bool, error) {
	result, err := p.filter.Evaluate(transform.ExpressionParams(rec))
	if err != nil {
		return false, err
	}
	keep, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter returned non-boolean %T (%v)", result, result)
	}
	return keep, nil
}

// applyMappings builds the output record. Later rules can read earlier targets.
// Without mappings the record is returned unchanged.
func (p *processorImpl) applyMappings(rec map[string]interface{}) (map[string]interface{}, error) {
	if len(p.mappings) == 0 {
		return rec, nil
	}
	state := make(map[string]interface{}, len(rec)+len(p.mappings))
	for k, v := range rec {
		state[k] = v
	}

	out := make(map[string]interface{}, len(p.mappings))
	for i, rule := range p.mappings {
		value, ok := state[rule.Source]
		if !ok {
			value = nil
		}
		if rule.Transform != "" {
			converted, err := transform.Apply(rule.Transform, rule.Params, value, state)
			if err != nil {
				return nil, fmt.Errorf("rule #%d ('%s' -> '%s'): %w", i, rule.Source, rule.Target, err)
			}
			value = converted
		}
		out[rule.Target] = value
		state[rule.Target] = value
	}
	return out, nil
}

// dedupIndex keeps one record per key in first-seen order. Which duplicate survives
// depends on the strategy.
type dedupIndex struct {
	keys       []string
	strategy   string
	field      string
	buckets    map[uint64][]int
	entries    []dedupEntry
	duplicates int
	replaced   int
}

type dedupEntry struct {
	key    string
	record map[string]interface{}
}

func newDedupIndex(cfg *config.DedupConfig) *dedupIndex {
	strategy := strings.ToLower(cfg.Strategy)
	if strategy == "" {
		strategy = config.DefaultDedupStrategy
	}
	return &dedupIndex{
		keys:     cfg.Keys,
		strategy: strategy,
		field:    cfg.StrategyField,
		buckets:  make(map[uint64][]int),
	}
}

const (
	keySeparator = "\x1f"
	missingKey   = "\x00<missing>"
)

// compositeKey joins the key column values of rec.
func (d *dedupIndex) compositeKey(rec map[string]interface{}) string {
	parts := make([]string, len(d.keys))
	for i, k := range d.keys {
		v, ok := rec[k]
		if !ok || v == nil {
			parts[i] = missingKey
			continue
		}
		parts[i] = transform.CanonicalString(v)
	}
	return strings.Join(parts, keySeparator)
}

func (d *dedupIndex) add(rec map[string]interface{}) {
	key := d.compositeKey(rec)
	h := xxh3.HashString(key)
	for _, i := range d.buckets[h] {
		if d.entries[i].key != key {
			continue
		}
		d.duplicates++
		if d.prefer(rec, d.entries[i].record) {
			d.entries[i].record = rec
			d.replaced++
		}
		return
	}
	d.buckets[h] = append(d.buckets[h], len(d.entries))
	d.entries = append(d.entries, dedupEntry{key: key, record: rec})
}

// prefer reports whether candidate should replace the stored record. For min and max a
// record whose strategy field is missing or empty never wins over one that has it; ties
// keep the stored record.
func (d *dedupIndex) prefer(candidate, stored map[string]interface{}) bool {
	switch d.strategy {
	case config.DedupStrategyLast:
		return true
	case config.DedupStrategyMin, config.DedupStrategyMax:
		cv := strategyValue(candidate, d.field)
		sv := strategyValue(stored, d.field)
		if cv == nil {
			return false
		}
		if sv == nil {
			return true
		}
		cmp, err := transform.CompareValues(cv, sv)
		if err != nil {
			logging.Logf(logging.Warning, "Processor: cannot compare dedup field '%s' values %v and %v: %v; keeping stored record.", d.field, cv, sv, err)
			return false
		}
		if d.strategy == config.DedupStrategyMin {
			return cmp < 0
		}
		return cmp > 0
	default:
		return false
	}
}

// strategyValue returns rec[field], or nil when it is absent or an empty string.
func strategyValue(rec map[string]interface{}, field string) interface{} {
	v := rec[field]
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	return v
}

func (d *dedupIndex) records() []map[string]interface{} {
	out := make([]map[string]interface{}, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.record
	}
	return out
}
