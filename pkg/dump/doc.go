// Package dump serializes store nodes to records and loads them back.
//
// # Record Format
//
// Each node becomes one [Record]:
//
//	{
//	  "nodeId": "task1",
//	  "schemaId": "task",
//	  "value": {"executor": "lyonbot"},
//	  "refs": {"subTasks": "array1", "meta": "anonymousObject1"}
//	}
//
// value holds the plain content and refs the references by target id. Array
// records keep their full length in value, with null in reference slots:
//
//	{"nodeId": "array1", "schemaId": "task/properties/subTasks", "value": [null, null], "refs": {"0": "task1"}}
//
// Nodes without schema have an empty schemaId.
//
// # Dumping
//
// [Dump] collects every node reachable from a set of entries, each once, so
// cyclic graphs dump to a finite list. Nodes matched by Options.Skips are
// left out and reported; references to them stay in the records.
//
// # Loading
//
// [Load] replays records into a store. References may point at other
// records, at nodes already in the store, or at ids resolved by a [Loader].
// Records are bound only after every node exists, so self and mutual
// references work in any order:
//
//	res, err := dump.Load(ctx, dump.LoadOptions{
//	    Records: records,
//	    Store:   s,
//	    Loader:  dump.Retrying(dump.CacheLoader(c, nil)),
//	})
//
// Loading into a store that already holds a record's id reuses that node when
// its schema and shape match (reported in LoadResult.Updated). Otherwise the
// old node is renamed (LoadResult.Renamed) and a new one takes the id.
//
// # Files and Caches
//
// [WriteJSON], [ReadJSON], [ExportJSON] and [ImportJSON] handle record
// files. [SaveRecords] and [CacheLoader] move records through any
// cache.Cache backend; [SaveDump] and [FetchDump] store whole dumps.
package dump
