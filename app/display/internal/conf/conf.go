package conf

type Bootstrap struct {
	Server *Server
	Data   *Data
}

type Server struct {
	Http *HTTP
	Grpc *GRPC
}

type HTTP struct {
	Addr    string
	Timeout string
}

type GRPC struct {
	Addr           string
	Timeout        string
	HealthInterval string `json:"health_interval"`
}

type Data struct {
	Database *Database
}

// Database Driver 为 postgres、sqlite 或 memory，Source 为对应的连接串或文件路径
type Database struct {
	Driver string
	Source string
}
