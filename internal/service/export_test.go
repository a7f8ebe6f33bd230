package service

var NewRunnerFor = newRunner
