package contract

// BuiltinBusiness is the presale business contract: expert registration,
// invitations, the brand registry and the token purchase.
//
// Function selectors are checked in abis_test.go.
const BuiltinBusiness = "tsc-business"

// On-chain method and event names.
const (
	MethodJoinExpert        = "joinExpert"
	MethodAcceptInvitation  = "acceptInvitation"
	MethodBuy               = "buy"
	MethodGetExpertSize     = "getExpertSize"
	MethodGetExpertInfo     = "getExpertInfo"
	MethodGetInvitationSize = "getInvitationSize"
	MethodGetInvitationInfo = "getInvitationInfo"
	MethodGetBrandSize      = "getBrandSize"
	MethodGetBrandInfo      = "getBrandInfo"

	EventJoinExpert       = "JoinExpert"
	EventAcceptInvitation = "AcceptInvitation"
	EventBuy              = "Buy"
)

func init() {
	RegisterBuiltin(BuiltinBusiness, "TSC Presale", "Expert, invitation, brand registry and token purchase.", businessABIJSON)
}

const businessABIJSON = `[
  {"type":"function","name":"joinExpert","inputs":[{"name":"tikTokId","type":"string"},{"name":"email","type":"string"}],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"acceptInvitation","inputs":[{"name":"upAddress","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"buy","inputs":[{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"getExpertSize","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
  {"type":"function","name":"getExpertInfo","inputs":[],"outputs":[{"name":"","type":"tuple[]","components":[{"name":"tikTokId","type":"string"},{"name":"email","type":"string"},{"name":"account","type":"address"}]}],"stateMutability":"view"},
  {"type":"function","name":"getInvitationSize","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
  {"type":"function","name":"getInvitationInfo","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"tuple[]","components":[{"name":"account","type":"address"},{"name":"amount","type":"uint256"}]}],"stateMutability":"view"},
  {"type":"function","name":"getBrandSize","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
  {"type":"function","name":"getBrandInfo","inputs":[],"outputs":[{"name":"","type":"tuple[]","components":[{"name":"name","type":"string"},{"name":"remarks","type":"string"},{"name":"logo","type":"string"}]}],"stateMutability":"view"},
  {"type":"event","name":"JoinExpert","anonymous":false,"inputs":[{"name":"tikTokId","type":"string","indexed":false},{"name":"email","type":"string","indexed":false},{"name":"account","type":"address","indexed":false},{"name":"time","type":"uint256","indexed":false}]},
  {"type":"event","name":"AcceptInvitation","anonymous":false,"inputs":[{"name":"account","type":"address","indexed":false},{"name":"up","type":"address","indexed":false}]},
  {"type":"event","name":"Buy","anonymous":false,"inputs":[{"name":"account","type":"address","indexed":false},{"name":"payAmount","type":"uint256","indexed":false},{"name":"tscAmount","type":"uint256","indexed":false},{"name":"up","type":"address","indexed":false},{"name":"upTscAmount","type":"uint256","indexed":false}]}
]`
