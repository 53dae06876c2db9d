package rdmframe

// PID is the 16-bit RDM parameter ID (E1.20 §3, spec §3).
type PID uint16

// The subset of standard PIDs this responder core actually dispatches.
// Discovery PIDs are handled outside the generic table (spec §4.4.3); the
// rest are either generic-handler-backed (spec §4.4.4) or model-specific.
const (
	PIDDiscUniqueBranch         PID = 0x0001
	PIDDiscMute                 PID = 0x0002
	PIDDiscUnMute               PID = 0x0003
	PIDProxiedDevices           PID = 0x0010
	PIDProxiedDeviceCount       PID = 0x0011
	PIDCommsStatus              PID = 0x0015
	PIDStatusMessages           PID = 0x0030
	PIDStatusIDDescription      PID = 0x0031
	PIDClearStatusID            PID = 0x0032
	PIDSubDeviceStatusReportThreshold PID = 0x0033
	PIDSupportedParameters      PID = 0x0050
	PIDParameterDescription     PID = 0x0051
	PIDDeviceInfo               PID = 0x0060
	PIDProductDetailIDList      PID = 0x0070
	PIDDeviceModelDescription   PID = 0x0080
	PIDManufacturerLabel        PID = 0x0081
	PIDDeviceLabel              PID = 0x0082
	PIDFactoryDefaults          PID = 0x0090
	PIDLanguageCapabilities     PID = 0x00A0
	PIDLanguage                 PID = 0x00B0
	PIDSoftwareVersionLabel     PID = 0x00C0
	PIDBootSoftwareVersionID    PID = 0x00C1
	PIDBootSoftwareVersionLabel PID = 0x00C2
	PIDDMXPersonality           PID = 0x00E0
	PIDDMXPersonalityDescription PID = 0x00E1
	PIDDMXStartAddress          PID = 0x00F0
	PIDSlotInfo                 PID = 0x0120
	PIDSlotDescription          PID = 0x0121
	PIDDefaultSlotValue         PID = 0x0122
	PIDSensorDefinition         PID = 0x0200
	PIDSensorValue              PID = 0x0201
	PIDRecordSensors            PID = 0x0202
	PIDDeviceHours              PID = 0x0400
	PIDIdentifyDevice           PID = 0x1000
	PIDResetDevice              PID = 0x1001
	PIDPowerState               PID = 0x1010
	PIDPerformSelfTest          PID = 0x1020
	PIDSelfTestDescription      PID = 0x1021
	PIDQueuedMessage            PID = 0x0020
	PIDDMXBlockAddress          PID = 0x0140
	PIDDMXFailMode              PID = 0x0041
	PIDDMXStartupMode           PID = 0x0042
)

// QueuedMessageStatus values the host passes in a GET QUEUED_MESSAGE
// request's one-byte parameter (spec §4.4.5).
const (
	StatusGetLastMessage uint8 = 0x01
	StatusAdvisory       uint8 = 0x02
	StatusWarning        uint8 = 0x03
	StatusError          uint8 = 0x04
)
