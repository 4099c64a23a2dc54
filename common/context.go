package common

type NzbContextKey string

const (
	ContextLogger       NzbContextKey = "nzb.logger"
	ContextAction       NzbContextKey = "nzb.action"
	ContextRequest      NzbContextKey = "nzb.request"
	ContextRequestId    NzbContextKey = "nzb.request_id"
	ContextServerConfig NzbContextKey = "nzb.serverConfig"
	ContextStatusCode   NzbContextKey = "nzb.status_code"
	ContextStartTime    NzbContextKey = "nzb.start_time"
)
