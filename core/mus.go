package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the persisted record types. The set of
// persisted types is small and every enum field is validated on decode, so
// the serializers are maintained by hand rather than generated.

var (
	// IDMUS serializes IDs.
	IDMUS = idMUS{}
	// DocumentMUS serializes Document records.
	DocumentMUS = documentMUS{}
	// ChunkMUS serializes Chunk records.
	ChunkMUS = chunkMUS{}

	strSliceMUS = ord.NewSliceSer[string](ord.String)
	strMapMUS   = ord.NewMapSer[string, string](ord.String, ord.String)
	vectorMUS   = ord.NewSliceSer[float32](raw.Float32)
	timeMUS     = timeSer{}
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (id ID, n int, err error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// timeSer serializes time.Time as Unix microseconds. The zero time is
// stored as 0 and restored as the zero time.
type timeSer struct{}

func (timeSer) Marshal(t time.Time, bs []byte) (n int) {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Marshal(micros, bs)
}

func (timeSer) Unmarshal(bs []byte) (t time.Time, n int, err error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micros == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func (timeSer) Size(t time.Time) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Size(micros)
}

func (s timeSer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.TenantID, bs[n:])
	n += varint.Int.Marshal(int(d.Level), bs[n:])
	n += ord.String.Marshal(d.SuiteID, bs[n:])
	n += ord.String.Marshal(d.ModuleID, bs[n:])
	n += ord.String.Marshal(d.Title, bs[n:])
	n += varint.Int.Marshal(int(d.SourceType), bs[n:])
	n += ord.String.Marshal(d.SourceURI, bs[n:])
	n += varint.Int.Marshal(int(d.Classification), bs[n:])
	n += ord.String.Marshal(d.Version, bs[n:])
	n += strSliceMUS.Marshal(d.Tags, bs[n:])
	n += varint.Int.Marshal(int(d.Status), bs[n:])
	n += IDMUS.Marshal(d.Replaces, bs[n:])
	n += varint.Int.Marshal(d.ChunkCount, bs[n:])
	n += ord.String.Marshal(d.IngestedBy, bs[n:])
	n += timeMUS.Marshal(d.IngestedAt, bs[n:])
	n += timeMUS.Marshal(d.DeprecatedAt, bs[n:])
	n += timeMUS.Marshal(d.UpdatedAt, bs[n:])
	return
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var n1 int
	if d.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if d.TenantID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	var v int
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	d.Level = Level(v)
	if err = ValidateLevel(d.Level); err != nil {
		return
	}
	if d.SuiteID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.ModuleID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	d.SourceType = SourceType(v)
	if err = ValidateSourceType(d.SourceType); err != nil {
		return
	}
	if d.SourceURI, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	d.Classification = Classification(v)
	if err = ValidateClassification(d.Classification); err != nil {
		return
	}
	if d.Version, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Tags, n1, err = strSliceMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	d.Status = Status(v)
	if err = ValidateStatus(d.Status); err != nil {
		return
	}
	if d.Replaces, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.IngestedBy, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.IngestedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.DeprecatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	return
}

func (documentMUS) Size(d Document) (size int) {
	size = IDMUS.Size(d.Id)
	size += ord.String.Size(d.TenantID)
	size += varint.Int.Size(int(d.Level))
	size += ord.String.Size(d.SuiteID)
	size += ord.String.Size(d.ModuleID)
	size += ord.String.Size(d.Title)
	size += varint.Int.Size(int(d.SourceType))
	size += ord.String.Size(d.SourceURI)
	size += varint.Int.Size(int(d.Classification))
	size += ord.String.Size(d.Version)
	size += strSliceMUS.Size(d.Tags)
	size += varint.Int.Size(int(d.Status))
	size += IDMUS.Size(d.Replaces)
	size += varint.Int.Size(d.ChunkCount)
	size += ord.String.Size(d.IngestedBy)
	size += timeMUS.Size(d.IngestedAt)
	size += timeMUS.Size(d.DeprecatedAt)
	size += timeMUS.Size(d.UpdatedAt)
	return
}

func (s documentMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.DocumentID, bs)
	n += varint.Int.Marshal(c.Ord, bs[n:])
	n += ord.String.Marshal(c.Content, bs[n:])
	n += strMapMUS.Marshal(c.Meta, bs[n:])
	n += vectorMUS.Marshal(c.Vector, bs[n:])
	return
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var n1 int
	if c.DocumentID, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if c.Ord, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Meta, n1, err = strMapMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Vector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	return
}

func (chunkMUS) Size(c Chunk) (size int) {
	size = IDMUS.Size(c.DocumentID)
	size += varint.Int.Size(c.Ord)
	size += ord.String.Size(c.Content)
	size += strMapMUS.Size(c.Meta)
	size += vectorMUS.Size(c.Vector)
	return
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}
