package gather

// Endpoint names one kind of upstream lookup. Stores that serve recorded
// upstream responses key them by endpoint.
type Endpoint string

const (
	EndpointDirectory     Endpoint = "directory"
	EndpointIndividual    Endpoint = "individual"
	EndpointEmployment    Endpoint = "employment"
	EndpointBenefits      Endpoint = "benefits"
	EndpointDeductions    Endpoint = "deductions"
	EndpointPayStatements Endpoint = "pay_statements"
)

// Endpoints lists every endpoint in fetch order.
var Endpoints = []Endpoint{
	EndpointDirectory,
	EndpointIndividual,
	EndpointEmployment,
	EndpointBenefits,
	EndpointDeductions,
	EndpointPayStatements,
}

func (e Endpoint) Valid() bool {
	for _, known := range Endpoints {
		if e == known {
			return true
		}
	}
	return false
}
