package domain

// ValuationResult 一次估值的输出，产出后不再修改
type ValuationResult struct {
	Price float64 `json:"price"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

// ValuationEngine 估值引擎接口
type ValuationEngine interface {
	// Price 对合约估值，输入非法时返回错误
	Price(spec ContractSpec) (*ValuationResult, error)
	// Name 引擎标识，用于结果落库与指标打点
	Name() string
}
