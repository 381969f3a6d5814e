package ftp

// Status codes are the RFC 959 reply codes the core needs to speak while
// driving the control channel. Command semantics (and therefore most reply
// codes) belong to the external collaborator; only the ones the core itself
// emits are named here.
const (
	StatusDataConnectionOpen         = 125
	StatusFileStatusOK               = 150
	StatusCommandOK                  = 200
	StatusCommandNotImplemented      = 202
	StatusSystemStatus               = 211
	StatusSystemType                 = 215
	StatusServiceReady               = 220
	StatusClosingControl             = 221
	StatusClosingDataConnection      = 226
	StatusEnteringPassiveMode        = 227
	StatusLoggedIn                   = 230
	StatusFileActionOK               = 250
	StatusPathCreated                = 257
	StatusNeedPassword               = 331
	StatusCantOpenDataConnection     = 425
	StatusConnectionClosedAborted    = 426
	StatusFileUnavailable            = 450
	StatusActionAbortedLocalError    = 451
	StatusInsufficientStorage        = 452
	StatusSyntaxError                = 500
	StatusSyntaxErrorInArguments     = 501
	StatusCommandNotImplementedAtAll = 502
	StatusBadCommandSequence         = 503
	StatusNotImplementedForParameter = 504
	StatusNotLoggedIn                = 530
	StatusNeedAccountForStoring      = 532
	StatusFileActionNotTaken         = 550
)

// Greeting is the control-channel banner the core writes immediately after
// accepting a connection.
const Greeting = "220 Simple FTP Server\r\n"

// ReadErrorReply is written back when a control-channel read fails; the
// unusual 200 status is an intentional external-interface quirk carried
// forward from the reference implementation, not a bug.
const ReadErrorReply = "200 Request couldn't be read, a connection error occurred!\r\n"

// SyntaxErrorReply is written back when a line fails to parse.
const SyntaxErrorReply = "500 Request couldn't be parsed, it was malformed!\r\n"
