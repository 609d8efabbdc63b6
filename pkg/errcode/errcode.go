package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	ReadFileError
	WriteConfigError

	// Database errors
	DBConnectionError
	DBNotConnectedError
	DBQueryError
	DBScanError
	DBUpdateError
	DBDeleteError
	DBTransactionError
	DBTableCheckError
	DBDropTableError

	// Schema errors
	SchemaGORMConnectionError
	SchemaCreateError
	SchemaMigrateError

	// Index errors
	IndexConnectionError
	IndexCreateError
	IndexWriteError
	IndexRefreshError
	IndexPrepareError

	// Maintenance errors
	MaintCursorError
	MaintAvailabilityError
	MaintCleanupError
	MaintDedupError
	MaintNameMergeError
	MaintAliasRebuildError
	MaintPolicyRecomputeError
	MaintRepairError
	MaintSanitizeError
	MaintRefetchError

	// Metadata fetch errors
	FetchRequestError
	FetchDecodeError
)
