// Package persist writes entity-store snapshots to disk and reads them
// back.
//
// A save runs one sampling pass over the entities to estimate output size,
// then picks a layout: everything in a single JSON document, or partition
// files plus an index when the entity count exceeds PartitionThreshold or
// the estimate exceeds MaxFileSize. The same estimate sizes the partitions
// toward PartitionSize bytes each, capped at PartitionThreshold entities
// per file.
//
// Every file is written atomically: a temp file in the target directory,
// fsync, then rename. In partitioned mode the index is written last, after
// every partition it references, and any failure removes every file the
// call created. The canonical path therefore always holds either the
// previous valid output or the new one, never a partial write.
//
// The JSON layouts (Document, PartitionDocument, IndexDocument) and the
// metadata keys are a stable contract for downstream consumers; Load and
// LoadPartitioned read them back into Snapshots.
package persist
