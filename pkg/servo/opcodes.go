package servo

// Opcodes of servo commands.
const (
	OpMoveTimeWrite     byte = 1
	OpMoveTimeRead      byte = 2
	OpMoveTimeWaitWrite byte = 7
	OpMoveTimeWaitRead  byte = 8
	OpMoveStart         byte = 11
	OpMoveStop          byte = 12

	OpIDWrite byte = 13
	OpIDRead  byte = 14

	OpAngleOffsetAdjust byte = 17
	OpAngleOffsetWrite  byte = 18
	OpAngleOffsetRead   byte = 19
	OpAngleLimitWrite   byte = 20
	OpAngleLimitRead    byte = 21

	OpVinLimitWrite     byte = 22
	OpVinLimitRead      byte = 23
	OpTempMaxLimitWrite byte = 24
	OpTempMaxLimitRead  byte = 25

	OpTempRead byte = 26
	OpVinRead  byte = 27
	OpPosRead  byte = 28

	OpModeWrite byte = 29
	OpModeRead  byte = 30

	OpLoadWrite byte = 31
	OpLoadRead  byte = 32

	OpLEDCtrlWrite  byte = 33
	OpLEDCtrlRead   byte = 34
	OpLEDErrorWrite byte = 35
	OpLEDErrorRead  byte = 36
)

// Addresses.
const (
	MinID       = 0
	MaxID       = 253
	BroadcastID = 254
)
