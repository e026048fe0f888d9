package fix

// Delimiters.
const (
	SOH  byte = 0x01
	Pipe byte = '|'
)

const (
	DefaultPageSize  = 4096
	DefaultNumPages  = 1000
	DefaultNumGroups = 1000

	checksumLen = 3 // "NNN"
)

// Well known tags. Only the ones the engine itself or its tests touch are listed.
const (
	TagAccount        = 1
	TagAvgPx          = 6
	TagBeginString    = 8
	TagBodyLength     = 9
	TagCheckSum       = 10
	TagClOrdID        = 11
	TagCumQty         = 14
	TagCurrency       = 15
	TagExecID         = 17
	TagHandlInst      = 21
	TagLastPx         = 31
	TagLastQty        = 32
	TagMsgSeqNum      = 34
	TagMsgType        = 35
	TagOrderID        = 37
	TagOrderQty       = 38
	TagOrdStatus      = 39
	TagOrdType        = 40
	TagPossDupFlag    = 43
	TagPrice          = 44
	TagSenderCompID   = 49
	TagSendingTime    = 52
	TagSide           = 54
	TagSymbol         = 55
	TagTargetCompID   = 56
	TagTargetSubID    = 57
	TagText           = 58
	TagTimeInForce    = 59
	TagTransactTime   = 60
	TagSecureDataLen  = 90
	TagSecureData     = 91
	TagEncryptMethod  = 98
	TagOrdRejReason   = 103
	TagHeartBtInt     = 108
	TagTestReqID      = 112
	TagExecType       = 150
	TagLeavesQty      = 151
	TagNoPartyIDs     = 453
	TagPartyID        = 448
	TagPartyIDSource  = 447
	TagPartyRole      = 452
	TagNoMDEntries    = 268
	TagMDEntryType    = 269
	TagMDEntryPx      = 270
	TagMDEntrySize    = 271
	TagMDReqID        = 262
	TagNoPartySubIDs  = 802
	TagPartySubID     = 523
	TagPartySubIDType = 803
)

// Message types used by the bundled dictionary.
const (
	MsgTypeHeartbeat                     = "0"
	MsgTypeTestRequest                   = "1"
	MsgTypeLogon                         = "A"
	MsgTypeExecutionReport               = "8"
	MsgTypeNewOrderSingle                = "D"
	MsgTypeMarketDataSnapshotFullRefresh = "W"
)
