// Package network implements spec §4.4.6's E1.37-2 network device model:
// three virtual interfaces, simulated DHCP/zeroconf address assignment
// (including firmware/src/network_model.c's 1-in-3 DHCP failure rate),
// static addressing, a default route restricted to the designated
// point-to-point interface, per-interface nameservers, and a
// hostname/domain pair. Grounded whole on network_model.c, carried per
// SPEC_FULL.md §3.
package network

import (
	"math/rand/v2"

	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/internal/responder"
	"ja-rule-go/types"
)

const (
	ModelID         = 0x0104
	ProductCategory = 0x0801 // NETWORK

	numNameservers  = 3
	interfaceIDSize = 4
	maxNetmask      = 32
	hostnameSize    = 63
	domainNameSize  = 231
	ipv4Unconfigured = 0
	noDefaultRoute   = 0xFFFFFFFF
	dhcpFailureRatio = 3 // fails 1/n DHCP attempts

	dhcpStatusInactive = 0
	dhcpStatusActive   = 1
)

// Manufacturer-specific PIDs this model adds beyond the shared base (spec
// §4.4.6, E1.37-2's LIST_INTERFACES family).
const (
	pidListInterfaces           uint16 = 0x8200
	pidInterfaceLabel           uint16 = 0x8201
	pidInterfaceHardwareAddress uint16 = 0x8202
	pidIPv4DHCPMode             uint16 = 0x8203
	pidIPv4ZeroconfMode         uint16 = 0x8204
	pidIPv4CurrentAddress       uint16 = 0x8205
	pidIPv4StaticAddress        uint16 = 0x8206
	pidIPv4RenewDHCP            uint16 = 0x8207
	pidIPv4ReleaseDHCP          uint16 = 0x8208
	pidApplyConfiguration       uint16 = 0x8209
	pidIPv4DefaultRoute         uint16 = 0x820A
	pidDNSNameServer            uint16 = 0x820B
	pidDNSHostname              uint16 = 0x820C
	pidDNSDomainName            uint16 = 0x820D
)

// ConfigSource mirrors ConfigSource in network_model.c.
type ConfigSource uint8

const (
	ConfigSourceStatic   ConfigSource = 0
	ConfigSourceDHCP     ConfigSource = 1
	ConfigSourceZeroconf ConfigSource = 2
	ConfigSourceNone     ConfigSource = 3
)

type interfaceDef struct {
	label         string
	id            uint32
	hardwareAddr  [6]byte
	supportsDHCP  bool
	dhcpCanFail   bool
	isPointToPoint bool
}

type interfaceState struct {
	configuredIP       uint32
	currentIP          uint32
	configuredNetmask  uint8
	currentNetmask     uint8
	configSource       ConfigSource
	configuredDHCP     bool
	currentDHCP        bool
	configuredZeroconf bool
	currentZeroconf    bool
}

var interfaceDefs = []interfaceDef{
	{label: "eth0", id: 1, hardwareAddr: [6]byte{0x52, 0x12, 0x34, 0x56, 0x78, 0x9a}, supportsDHCP: true},
	{label: "tun0", id: 3, isPointToPoint: true},
	{label: "wlan0", id: 4, hardwareAddr: [6]byte{0x52, 0xab, 0xcd, 0xef, 0x01, 0x23}, supportsDHCP: true, dhcpCanFail: true},
}

// Model is the network responder.
type Model struct {
	def             *types.ResponderDefinition
	r               *types.Responder
	ifaces          []interfaceState
	defaultRouteIdx uint32
	defaultRoute    uint32
	nameservers     [numNameservers]uint32
	hostname        string
	domainName      string
}

// New builds a network model bound to uid with the same three interfaces
// and initial static/DHCP/zeroconf configuration as network_model.c's
// NetworkModel_Initialize.
func New(uid types.UID) *Model {
	m := &Model{
		ifaces:     make([]interfaceState, len(interfaceDefs)),
		hostname:   "responder",
		domainName: "local",
	}
	m.ifaces[0] = interfaceState{configuredIP: 0xc0a80001, configuredNetmask: 24}
	m.ifaces[1] = interfaceState{configuredIP: 167837953, configuredNetmask: 31}
	m.ifaces[2] = interfaceState{configuredDHCP: true, configuredZeroconf: true}
	for i := range m.ifaces {
		m.configureInterface(i)
	}
	m.defaultRouteIdx = noDefaultRoute
	m.defaultRoute = noDefaultRoute
	for i := range m.nameservers {
		m.nameservers[i] = ipv4Unconfigured
	}

	m.def = &types.ResponderDefinition{
		SoftwareVersionLabel: "Alpha",
		ManufacturerLabel:    "Ja Rule",
		ModelDescription:     "Ja Rule Network Device",
		DefaultDeviceLabel:   "Ja Rule",
		ModelID:              ModelID,
		ProductCategory:      ProductCategory,
		SoftwareVersion:      0,
	}
	m.r = &types.Responder{UID: uid, DMXStartAddress: types.InvalidAddress}
	m.def.PIDTable = responder.BuildTable(m.def, m.r, m.pidRows())
	rdmframe.CopyLabel(m.r.DeviceLabel[:], []byte(m.def.DefaultDeviceLabel))
	m.r.Definition = m.def
	return m
}

func (m *Model) lookup(id uint32) int {
	for i, d := range interfaceDefs {
		if d.id == id {
			return i
		}
	}
	return -1
}

func getDHCPAddress(canFail bool) uint32 {
	if canFail && rand.IntN(dhcpFailureRatio) == 0 {
		return ipv4Unconfigured
	}
	return (10 << 24) + uint32(rand.Int32N(1<<24))
}

func (m *Model) useZeroconfOrUnassign(i int) {
	s := &m.ifaces[i]
	if s.currentZeroconf {
		s.currentIP = 0xa9fe0000 + uint32(rand.IntN(0xfeff))
		s.currentNetmask = 16
		s.configSource = ConfigSourceZeroconf
	} else {
		s.configSource = ConfigSourceNone
		s.currentIP = ipv4Unconfigured
		s.currentNetmask = 0
	}
}

func (m *Model) configureInterface(i int) {
	s := &m.ifaces[i]
	s.currentDHCP = s.configuredDHCP
	s.currentZeroconf = s.configuredZeroconf

	switch {
	case s.configuredIP != ipv4Unconfigured:
		s.currentIP = s.configuredIP
		s.currentNetmask = s.configuredNetmask
		s.configSource = ConfigSourceStatic
	case s.configuredDHCP:
		if addr := getDHCPAddress(interfaceDefs[i].dhcpCanFail); addr != ipv4Unconfigured {
			s.currentIP = addr
			s.currentNetmask = 8
			s.configSource = ConfigSourceDHCP
		} else {
			m.useZeroconfOrUnassign(i)
		}
	default:
		m.useZeroconfOrUnassign(i)
	}
}

func (m *Model) pidRows() []types.PIDDescriptor {
	return []types.PIDDescriptor{
		{PID: pidListInterfaces, GetParamSize: 0, Get: m.getListInterfaces},
		{PID: pidInterfaceLabel, GetParamSize: interfaceIDSize, Get: m.getInterfaceLabel},
		{PID: pidInterfaceHardwareAddress, GetParamSize: interfaceIDSize, Get: m.getHardwareAddress},
		{PID: pidIPv4DHCPMode, GetParamSize: interfaceIDSize, Get: m.getDHCPMode, Set: m.setDHCPMode},
		{PID: pidIPv4ZeroconfMode, GetParamSize: interfaceIDSize, Get: m.getZeroconfMode, Set: m.setZeroconfMode},
		{PID: pidIPv4CurrentAddress, GetParamSize: interfaceIDSize, Get: m.getCurrentAddress},
		{PID: pidIPv4StaticAddress, GetParamSize: interfaceIDSize, Get: m.getStaticAddress, Set: m.setStaticAddress},
		{PID: pidIPv4RenewDHCP, Set: m.renewDHCP},
		{PID: pidIPv4ReleaseDHCP, Set: m.releaseDHCP},
		{PID: pidApplyConfiguration, Set: m.applyConfiguration},
		{PID: pidIPv4DefaultRoute, GetParamSize: 0, Get: m.getDefaultRoute, Set: m.setDefaultRoute},
		{PID: pidDNSNameServer, GetParamSize: 1, Get: m.getNameServer, Set: m.setNameServer},
		{PID: pidDNSHostname, GetParamSize: 0, Get: m.getHostname, Set: m.setHostname},
		{PID: pidDNSDomainName, GetParamSize: 0, Get: m.getDomainName, Set: m.setDomainName},
	}
}

func be32(v uint32) []byte { return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)} }

func extractID(params []byte) uint32 {
	return uint32(params[0])<<24 | uint32(params[1])<<16 | uint32(params[2])<<8 | uint32(params[3])
}

func (m *Model) getListInterfaces(_ []byte) ([]byte, uint16, bool) {
	var out []byte
	for _, d := range interfaceDefs {
		out = append(out, be32(d.id)...)
		out = append(out, 0x01, 0x00) // hardware_type: ETHERNET or IPSEC, simplified
	}
	return out, 0, false
}

func (m *Model) getInterfaceLabel(params []byte) ([]byte, uint16, bool) {
	idx := m.lookup(extractID(params))
	if idx < 0 {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	out := append(be32(interfaceDefs[idx].id), []byte(interfaceDefs[idx].label)...)
	return out, 0, false
}

func (m *Model) getHardwareAddress(params []byte) ([]byte, uint16, bool) {
	idx := m.lookup(extractID(params))
	if idx < 0 || interfaceDefs[idx].isPointToPoint {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	out := append(be32(interfaceDefs[idx].id), interfaceDefs[idx].hardwareAddr[:]...)
	return out, 0, false
}

func (m *Model) getDHCPMode(params []byte) ([]byte, uint16, bool) {
	idx := m.lookup(extractID(params))
	if idx < 0 {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	return append(be32(interfaceDefs[idx].id), boolByte(m.ifaces[idx].configuredDHCP)), 0, false
}

func (m *Model) setDHCPMode(params []byte) ([]byte, uint16, bool) {
	if len(params) != interfaceIDSize+1 {
		return nil, uint16(rdmframe.NackFormatError), true
	}
	idx := m.lookup(extractID(params))
	if idx < 0 {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	if !interfaceDefs[idx].supportsDHCP {
		return nil, uint16(rdmframe.NackActionNotSupported), true
	}
	m.ifaces[idx].configuredDHCP = params[interfaceIDSize] != 0
	return nil, 0, false
}

func (m *Model) getZeroconfMode(params []byte) ([]byte, uint16, bool) {
	idx := m.lookup(extractID(params))
	if idx < 0 {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	return append(be32(interfaceDefs[idx].id), boolByte(m.ifaces[idx].configuredZeroconf)), 0, false
}

func (m *Model) setZeroconfMode(params []byte) ([]byte, uint16, bool) {
	if len(params) != interfaceIDSize+1 {
		return nil, uint16(rdmframe.NackFormatError), true
	}
	idx := m.lookup(extractID(params))
	if idx < 0 {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	if !interfaceDefs[idx].supportsDHCP {
		return nil, uint16(rdmframe.NackActionNotSupported), true
	}
	m.ifaces[idx].configuredZeroconf = params[interfaceIDSize] != 0
	return nil, 0, false
}

func (m *Model) getCurrentAddress(params []byte) ([]byte, uint16, bool) {
	idx := m.lookup(extractID(params))
	if idx < 0 {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	s := m.ifaces[idx]
	status := uint8(dhcpStatusInactive)
	if interfaceDefs[idx].supportsDHCP && s.configSource == ConfigSourceDHCP {
		status = dhcpStatusActive
	}
	out := append(be32(interfaceDefs[idx].id), be32(s.currentIP)...)
	out = append(out, s.currentNetmask, status)
	return out, 0, false
}

func (m *Model) getStaticAddress(params []byte) ([]byte, uint16, bool) {
	idx := m.lookup(extractID(params))
	if idx < 0 {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	s := m.ifaces[idx]
	out := append(be32(interfaceDefs[idx].id), be32(s.configuredIP)...)
	out = append(out, s.configuredNetmask)
	return out, 0, false
}

func (m *Model) setStaticAddress(params []byte) ([]byte, uint16, bool) {
	if len(params) != 2*interfaceIDSize+1 {
		return nil, uint16(rdmframe.NackFormatError), true
	}
	idx := m.lookup(extractID(params))
	if idx < 0 {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	netmask := params[8]
	if netmask > maxNetmask {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	m.ifaces[idx].configuredIP = extractID(params[4:8])
	m.ifaces[idx].configuredNetmask = netmask
	return nil, 0, false
}

func (m *Model) renewDHCP(params []byte) ([]byte, uint16, bool) {
	if len(params) != interfaceIDSize {
		return nil, uint16(rdmframe.NackFormatError), true
	}
	idx := m.lookup(extractID(params))
	if idx < 0 {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	s := &m.ifaces[idx]
	if s.configSource == ConfigSourceStatic || !s.currentDHCP {
		return nil, uint16(rdmframe.NackActionNotSupported), true
	}
	if s.configSource == ConfigSourceDHCP {
		if rand.IntN(dhcpFailureRatio) == 0 {
			m.useZeroconfOrUnassign(idx)
		}
	} else if addr := getDHCPAddress(interfaceDefs[idx].dhcpCanFail); addr != ipv4Unconfigured {
		s.currentIP = addr
		s.currentNetmask = 8
		s.configSource = ConfigSourceDHCP
	} else {
		m.useZeroconfOrUnassign(idx)
	}
	return nil, 0, false
}

func (m *Model) releaseDHCP(params []byte) ([]byte, uint16, bool) {
	if len(params) != interfaceIDSize {
		return nil, uint16(rdmframe.NackFormatError), true
	}
	idx := m.lookup(extractID(params))
	if idx < 0 {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	if m.ifaces[idx].configSource != ConfigSourceDHCP {
		return nil, uint16(rdmframe.NackActionNotSupported), true
	}
	m.useZeroconfOrUnassign(idx)
	return nil, 0, false
}

func (m *Model) applyConfiguration(params []byte) ([]byte, uint16, bool) {
	if len(params) != interfaceIDSize {
		return nil, uint16(rdmframe.NackFormatError), true
	}
	idx := m.lookup(extractID(params))
	if idx < 0 {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	m.configureInterface(idx)
	return nil, 0, false
}

func (m *Model) getDefaultRoute(_ []byte) ([]byte, uint16, bool) {
	return append(be32(m.defaultRouteIdx), be32(m.defaultRoute)...), 0, false
}

func (m *Model) setDefaultRoute(params []byte) ([]byte, uint16, bool) {
	if len(params) != 8 {
		return nil, uint16(rdmframe.NackFormatError), true
	}
	ifaceID := extractID(params[0:4])
	ip := extractID(params[4:8])
	if ifaceID != noDefaultRoute || ip != noDefaultRoute {
		idx := m.lookup(ifaceID)
		if idx < 0 || !interfaceDefs[idx].isPointToPoint {
			// only the designated point-to-point interface may hold the
			// default route (spec §4.4.6)
			return nil, uint16(rdmframe.NackDataOutOfRange), true
		}
	}
	m.defaultRouteIdx = ifaceID
	m.defaultRoute = ip
	return nil, 0, false
}

func (m *Model) getNameServer(params []byte) ([]byte, uint16, bool) {
	idx := params[0]
	if int(idx) >= numNameservers {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	return append([]byte{idx}, be32(m.nameservers[idx])...), 0, false
}

func (m *Model) setNameServer(params []byte) ([]byte, uint16, bool) {
	if len(params) != 5 {
		return nil, uint16(rdmframe.NackFormatError), true
	}
	idx := params[0]
	if int(idx) >= numNameservers {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	m.nameservers[idx] = extractID(params[1:5])
	return nil, 0, false
}

func (m *Model) getHostname(_ []byte) ([]byte, uint16, bool) { return []byte(m.hostname), 0, false }

func (m *Model) setHostname(params []byte) ([]byte, uint16, bool) {
	if len(params) == 0 || len(params) > hostnameSize {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	m.hostname = string(params)
	return nil, 0, false
}

func (m *Model) getDomainName(_ []byte) ([]byte, uint16, bool) { return []byte(m.domainName), 0, false }

func (m *Model) setDomainName(params []byte) ([]byte, uint16, bool) {
	if len(params) > domainNameSize {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	m.domainName = string(params)
	return nil, 0, false
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func (m *Model) Name() string { return "network" }
func (m *Model) Activate()    {}
func (m *Model) Deactivate()  {}

func (m *Model) Ioctl(cmd string, arg any) (any, error) {
	if cmd == "uid" {
		return m.r.UID, nil
	}
	return nil, nil
}

func (m *Model) HandleRequest(req rdmframe.Frame) (rdmframe.Frame, bool) {
	return responder.HandleStandalone(m.def, m.r, req)
}

func (m *Model) Tasks() {}
