package feishu

// BaseResponse 飞书API通用响应
type BaseResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// InteractiveCard 交互式消息卡片
type InteractiveCard struct {
	Config   *CardConfig   `json:"config,omitempty"`
	Header   *CardHeader   `json:"header,omitempty"`
	Elements []CardElement `json:"elements,omitempty"`
}

// CardConfig 卡片配置
type CardConfig struct {
	WideScreenMode bool `json:"wide_screen_mode"`
}

// CardHeader 卡片标题，Template 为颜色：blue/green/red/orange
type CardHeader struct {
	Title    CardText `json:"title"`
	Template string   `json:"template,omitempty"`
}

// CardText 文本，Tag 为 plain_text 或 lark_md
type CardText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

// CardElement 卡片元素：div/hr/note/action
type CardElement struct {
	Tag      string        `json:"tag"`
	Text     *CardText     `json:"text,omitempty"`
	Fields   []CardField   `json:"fields,omitempty"`
	Actions  []CardAction  `json:"actions,omitempty"`
	Elements []CardElement `json:"elements,omitempty"`
	Content  string        `json:"content,omitempty"`
}

// CardField div 中的字段，IsShort 为并排显示
type CardField struct {
	IsShort bool     `json:"is_short"`
	Text    CardText `json:"text"`
}

// CardAction 跳转按钮
type CardAction struct {
	Tag  string   `json:"tag"`
	Text CardText `json:"text"`
	Type string   `json:"type,omitempty"`
	URL  string   `json:"url,omitempty"`
}

// SendMessageResponse 发送消息响应
type SendMessageResponse struct {
	BaseResponse
	Data struct {
		MessageID string `json:"message_id"`
	} `json:"data"`
}
