package protocol

// PublicIPConfigData 公网 IP 采集配置
type PublicIPConfigData struct {
	URL            string `json:"url"`            // IP 回显接口
	TimeoutSeconds int    `json:"timeoutSeconds"` // 请求超时（秒）
	CacheSeconds   int    `json:"cacheSeconds"`   // 缓存时间（秒），0 表示每次都查询
	GeoIPDBPath    string `json:"geoipDbPath"`    // GeoIP 数据库路径（可选）
}

// ExternalIP 公网 IP 采集结果
type ExternalIP struct {
	IP      string `json:"ip"`
	Country string `json:"country,omitempty"` // ISO 国家代码
	City    string `json:"city,omitempty"`
}
