package catalogevents

const (
	TopicName          = "catalog"
	productCreatedName = TopicName + ".product.created"
	productUpdatedName = TopicName + ".product.updated"
	productDeletedName = TopicName + ".product.deleted"
)

type ProductCreated struct {
	ProductUID  string
	CategoryUID string
}

func (e ProductCreated) GetEventTypeName() string {
	return productCreatedName
}

func (e ProductCreated) GetAggregateName() string {
	return e.ProductUID
}

type ProductUpdated struct {
	ProductUID string
}

func (e ProductUpdated) GetEventTypeName() string {
	return productUpdatedName
}

func (e ProductUpdated) GetAggregateName() string {
	return e.ProductUID
}

type ProductDeleted struct {
	ProductUID string
}

func (e ProductDeleted) GetEventTypeName() string {
	return productDeletedName
}

func (e ProductDeleted) GetAggregateName() string {
	return e.ProductUID
}
