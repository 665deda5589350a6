package metrics

var OrdersSubmittedCounter = ordersSubmitted
